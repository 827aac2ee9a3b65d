package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booktrack/config"
	"booktrack/internal/application"
	"booktrack/pkg/helpers"
	"booktrack/pkg/mailer"
	"booktrack/pkg/response"
	"booktrack/pkg/validation"
)

// AuthHandler exposes registration, login and the password reset flow.
type AuthHandler struct {
	Auth   *application.AuthService
	Reset  *application.ResetService
	Pub    *helpers.RabbitPublisher
	Logger *logrus.Logger
	Cfg    *config.Config
}

func NewAuthHandler(auth *application.AuthService, reset *application.ResetService, pub *helpers.RabbitPublisher, logger *logrus.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Auth: auth, Reset: reset, Pub: pub, Logger: logger, Cfg: cfg}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

// Register - POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Error[any](c, http.StatusBadRequest, "user already exists", nil)
			return
		}
		h.logErr(err, "register failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}

	h.enqueueMail(c, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateWelcome,
		Data:     map[string]any{"Name": u.Name},
	})

	response.Success[any](c, http.StatusCreated, gin.H{"id": u.ID}, "user created successfully", nil)
}

// Login - POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, token, exp, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			response.Error[any](c, http.StatusBadRequest, "invalid credentials", nil)
			return
		}
		h.logErr(err, "login failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}

	response.Success[any](c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	}, "login successful", map[string]any{"expires_at": exp})
}

// RequestPasswordReset - POST /api/auth/request-password-reset
// An unknown email answers 400; the API discloses account existence here,
// matching its historical behavior.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, token, expiry, err := h.Reset.Request(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusBadRequest, "user not found", nil)
			return
		}
		h.logErr(err, "reset request failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}

	link := h.Cfg.ResetPasswordURL + "?token=" + token
	h.enqueueMail(c, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateResetPassword,
		Data: map[string]any{
			"Name":      u.Name,
			"ResetURL":  link,
			"ExpiresAt": expiry.UTC().Format(time.RFC1123),
		},
	})

	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset email sent", nil)
}

// ResetPassword - POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Reset.Consume(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
	case errors.Is(err, application.ErrInvalidResetToken):
		response.Error[any](c, http.StatusBadRequest, "invalid token", nil)
	case errors.Is(err, application.ErrExpiredResetToken):
		response.Error[any](c, http.StatusBadRequest, "token expired", nil)
	default:
		h.logErr(err, "reset confirm failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
	}
}

func (h *AuthHandler) enqueueMail(c *gin.Context, job mailer.EmailJob) {
	if h.Pub == nil || h.Cfg == nil || !h.Cfg.MailSendEnabled {
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("to", job.To).Warn("failed to enqueue email")
	}
}

func (h *AuthHandler) logErr(err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
}
