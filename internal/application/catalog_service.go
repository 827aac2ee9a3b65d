package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"booktrack/internal/domain/entity"
	repo "booktrack/internal/domain/repository"
	"booktrack/pkg/helpers"
)

const catalogCacheKey = "catalog:books"
const catalogCacheTTL = time.Minute

// CatalogService manages the shared book catalog: CRUD against Postgres,
// a short-lived Redis cache for the public listing, best-effort indexing
// into Elasticsearch for search, and GCS for cover images.
type CatalogService struct {
	Books        repo.BookRepository
	Redis        *redis.Client
	ES           *elasticsearch.Client
	ESBooksIndex string
	GCS          *storage.Client
	GCSBucket    string
	Logger       *logrus.Logger
}

func NewCatalogService(books repo.BookRepository, rdb *redis.Client, es *elasticsearch.Client, esIndex string, gcs *storage.Client, gcsBucket string, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		Books:        books,
		Redis:        rdb,
		ES:           es,
		ESBooksIndex: esIndex,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Logger:       logger,
	}
}

func (s *CatalogService) List(ctx context.Context) ([]entity.Book, error) {
	if s.Redis != nil {
		var cached []entity.Book
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, catalogCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	books, err := s.Books.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, catalogCacheKey, books, catalogCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("catalog cache write failed")
		}
	}
	return books, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*entity.Book, error) {
	b, err := s.Books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *CatalogService) Create(ctx context.Context, b *entity.Book) error {
	if err := s.Books.Create(ctx, b); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	_ = s.indexBook(ctx, b)
	return nil
}

func (s *CatalogService) Update(ctx context.Context, b *entity.Book) (*entity.Book, error) {
	if err := s.Books.Update(ctx, b); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	updated, err := s.Books.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	_ = s.indexBook(ctx, updated)
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.Books.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	s.invalidateCache(ctx)
	s.deleteIndexed(ctx, id)
	return nil
}

// UploadCover stores a cover image under covers/<bookID>/ and records its
// public URL on the book.
func (s *CatalogService) UploadCover(ctx context.Context, bookID string, r io.Reader, filename, contentType string) (string, error) {
	b, err := s.Get(ctx, bookID)
	if err != nil {
		return "", err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("covers", b.ID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Books.SetCoverURL(ctx, b.ID, url); err != nil {
		return "", err
	}
	s.invalidateCache(ctx)
	b.CoverURL = url
	_ = s.indexBook(ctx, b)
	return url, nil
}

// Search runs a multi_match query over title, author and genre.
func (s *CatalogService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESBooksIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "author", "genre"},
			},
		},
		"size": size,
	}
	body, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESBooksIndex),
		s.ES.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, catalogCacheKey); err != nil && s.Logger != nil {
		s.Logger.WithError(err).Warn("catalog cache invalidate failed")
	}
}

func (s *CatalogService) indexBook(ctx context.Context, b *entity.Book) error {
	if s.ES == nil || s.ESBooksIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":          b.ID,
		"title":       b.Title,
		"author":      b.Author,
		"genre":       b.Genre,
		"description": b.Description,
		"link":        b.Link,
		"cover_url":   b.CoverURL,
		"updated_at":  b.UpdatedAt.Format(time.RFC3339Nano),
	}
	body, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESBooksIndex, DocumentID: b.ID, Body: strings.NewReader(string(body)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("book_id", b.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("book_id", b.ID).Warn("es index response error")
	}
	return nil
}

func (s *CatalogService) deleteIndexed(ctx context.Context, id string) {
	if s.ES == nil || s.ESBooksIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESBooksIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if res, err := req.Do(c, s.ES); err == nil {
		_ = res.Body.Close()
	}
}
