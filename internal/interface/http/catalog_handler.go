package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"booktrack/internal/application"
	"booktrack/internal/domain/entity"
	"booktrack/pkg/response"
	"booktrack/pkg/validation"
)

// CatalogHandler exposes the shared book catalog.
type CatalogHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewCatalogHandler(svc *application.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Logger: logger}
}

type bookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Genre       string `json:"genre" binding:"required"`
	Description string `json:"description" binding:"required"`
	Link        string `json:"link" binding:"required,url"`
}

// List - GET /api/books/all
func (h *CatalogHandler) List(c *gin.Context) {
	books, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.logErr(err, "catalog list failed")
		response.Error[any](c, http.StatusInternalServerError, "error fetching books", nil)
		return
	}
	response.Success(c, http.StatusOK, books, "catalog", nil)
}

// Search - GET /api/books/search?q=
func (h *CatalogHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, 10)
	if err != nil {
		h.logErr(err, "catalog search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

// Create - POST /api/books/add
func (h *CatalogHandler) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b := &entity.Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		Link:        req.Link,
	}
	if err := h.Svc.Create(c.Request.Context(), b); err != nil {
		h.logErr(err, "book create failed")
		response.Error[any](c, http.StatusInternalServerError, "error adding book", nil)
		return
	}
	response.Success(c, http.StatusCreated, b, "book added", nil)
}

// Update - PUT /api/books/edit/:id
func (h *CatalogHandler) Update(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b := &entity.Book{
		ID:          c.Param("id"),
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		Link:        req.Link,
	}
	updated, err := h.Svc.Update(c.Request.Context(), b)
	if err != nil {
		if errors.Is(err, application.ErrBookNotFound) {
			response.Error[any](c, http.StatusNotFound, "book not found", nil)
			return
		}
		h.logErr(err, "book update failed")
		response.Error[any](c, http.StatusInternalServerError, "error editing book", nil)
		return
	}
	response.Success(c, http.StatusOK, updated, "book updated", nil)
}

// Delete - DELETE /api/books/delete/:id (admin only)
func (h *CatalogHandler) Delete(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, application.ErrBookNotFound) {
			response.Error[any](c, http.StatusNotFound, "book not found", nil)
			return
		}
		h.logErr(err, "book delete failed")
		response.Error[any](c, http.StatusInternalServerError, "error deleting book", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "book deleted successfully", nil)
}

// UploadCover - POST /api/books/:id/cover (admin only, multipart form
// field "cover")
func (h *CatalogHandler) UploadCover(c *gin.Context) {
	fh, err := c.FormFile("cover")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cover file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read cover file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadCover(c.Request.Context(), c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, application.ErrBookNotFound) {
			response.Error[any](c, http.StatusNotFound, "book not found", nil)
			return
		}
		h.logErr(err, "cover upload failed")
		response.Error[any](c, http.StatusInternalServerError, "error uploading cover", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"cover_url": url}, "cover uploaded", nil)
}

func (h *CatalogHandler) logErr(err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
}
