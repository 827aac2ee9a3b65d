package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"booktrack/internal/container"
	handlers "booktrack/internal/interface/http"
	"booktrack/internal/interface/middleware"
	"booktrack/pkg/helpers"
)

// AuthModule wires the account and library routes.
// Public: register, login, password reset request/confirm.
// Protected (bearer): profile with library, library upsert/status/remove.
type AuthModule struct {
	Auth    *handlers.AuthHandler
	Library *handlers.LibraryHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(auth *handlers.AuthHandler, library *handlers.LibraryHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Auth: auth, Library: library, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetInitLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetConfirmLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", registerLimiter, m.Auth.Register)
	rg.POST("/auth/login", loginLimiter, m.Auth.Login)
	rg.POST("/auth/request-password-reset", resetInitLimiter, m.Auth.RequestPasswordReset)
	rg.POST("/auth/reset-password", resetConfirmLimiter, m.Auth.ResetPassword)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/auth/user", m.Library.GetUser)
		auth.PUT("/auth/library", m.Library.AddOrUpdate)
		auth.PUT("/auth/library/status", m.Library.UpdateStatus)
		auth.DELETE("/auth/library/:bookId", m.Library.Remove)
	}
}
