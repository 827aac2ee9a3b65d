package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"booktrack/internal/container"
	handlers "booktrack/internal/interface/http"
	"booktrack/internal/interface/middleware"
	"booktrack/pkg/helpers"
)

// CatalogModule wires the shared book catalog.
// Listing is public; writes need a valid token, delete and cover upload
// additionally need the admin role.
type CatalogModule struct {
	Handler *handlers.CatalogHandler
	JWT     *helpers.JWTManager
}

func NewCatalogModule(h *handlers.CatalogHandler, jwt *helpers.JWTManager) *CatalogModule {
	return &CatalogModule{Handler: h, JWT: jwt}
}

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	listLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/books/all", listLimiter, m.Handler.List)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/books/search", m.Handler.Search)
		auth.POST("/books/add", m.Handler.Create)
		auth.PUT("/books/edit/:id", m.Handler.Update)

		admin := auth.Group("/")
		admin.Use(middleware.RequireAdmin())
		{
			admin.DELETE("/books/delete/:id", m.Handler.Delete)
			admin.POST("/books/:id/cover", m.Handler.UploadCover)
		}
	}
}
