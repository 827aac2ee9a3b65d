package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booktrack/internal/application"
	"booktrack/internal/domain/entity"
	"booktrack/internal/interface/middleware"
	"booktrack/pkg/response"
	"booktrack/pkg/validation"
)

// LibraryHandler exposes the authenticated profile view and the per-user
// library operations. The projection never includes the password hash or
// reset token fields.
type LibraryHandler struct {
	Svc    *application.LibraryService
	Logger *logrus.Logger
}

func NewLibraryHandler(svc *application.LibraryService, logger *logrus.Logger) *LibraryHandler {
	return &LibraryHandler{Svc: svc, Logger: logger}
}

type upsertEntryRequest struct {
	BookID      string `json:"bookId" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Status      string `json:"status" binding:"required"`
}

type updateStatusRequest struct {
	BookID string `json:"bookId" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// GetUser - GET /api/auth/user
func (h *LibraryHandler) GetUser(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, lib, err := h.Svc.List(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.logErr(err, "get user failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{
		"name":    u.Name,
		"email":   u.Email,
		"library": lib,
	}, "user profile", nil)
}

// AddOrUpdate - PUT /api/auth/library
// Upsert by bookId: a new book appends to the library (201), an existing one
// is overwritten in place with exactly the supplied fields (200).
func (h *LibraryHandler) AddOrUpdate(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req upsertEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "bookId, title, author and status are required", validation.ToDetails(err))
		return
	}

	entry := entity.LibraryEntry{
		BookID:      req.BookID,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		Link:        req.Link,
		Status:      req.Status,
	}
	inserted, lib, err := h.Svc.AddOrUpdate(c.Request.Context(), uid, entry)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.logErr(err, "library upsert failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}

	status := http.StatusOK
	msg := "book updated in library"
	if inserted {
		status = http.StatusCreated
		msg = "book added to library"
	}
	response.Success(c, status, lib, msg, nil)
}

// UpdateStatus - PUT /api/auth/library/status
// Mutates only the status of an existing entry; everything else is kept.
func (h *LibraryHandler) UpdateStatus(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "bookId and status are required", validation.ToDetails(err))
		return
	}

	lib, err := h.Svc.UpdateStatus(c.Request.Context(), uid, req.BookID, req.Status)
	if err != nil {
		if errors.Is(err, application.ErrBookNotInLibrary) {
			response.Error[any](c, http.StatusNotFound, "book not found in library", nil)
			return
		}
		h.logErr(err, "status update failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}
	response.Success(c, http.StatusOK, lib, "status updated", nil)
}

// Remove - DELETE /api/auth/library/:bookId
func (h *LibraryHandler) Remove(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	bookID := c.Param("bookId")

	lib, err := h.Svc.Remove(c.Request.Context(), uid, bookID)
	if err != nil {
		if errors.Is(err, application.ErrBookNotInLibrary) {
			response.Error[any](c, http.StatusNotFound, "book not found in library", nil)
			return
		}
		h.logErr(err, "library remove failed")
		response.Error[any](c, http.StatusInternalServerError, "server error", nil)
		return
	}
	response.Success(c, http.StatusOK, lib, "book removed from library", nil)
}

func (h *LibraryHandler) logErr(err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
}
