package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"booktrack/config"
	"booktrack/internal/application"
	"booktrack/internal/domain/entity"
	repo "booktrack/internal/domain/repository"
	handlers "booktrack/internal/interface/http"
	"booktrack/internal/router"
	"booktrack/internal/router/modules"
	"booktrack/pkg/helpers"
	"booktrack/pkg/validation"
)

// In-memory repositories mirroring the Postgres semantics: unique email,
// upsert-by-bookId keeping position, single-use reset tokens.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*entity.User // by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, token string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, userID, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *fakeUserRepo) ConsumeResetToken(_ context.Context, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			u.Password = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpiry = nil
			return nil
		}
	}
	return repo.ErrNotFound
}

type fakeLibraryRepo struct {
	mu      sync.Mutex
	entries map[string][]entity.LibraryEntry // by user id, insertion order
}

func newFakeLibraryRepo() *fakeLibraryRepo {
	return &fakeLibraryRepo{entries: map[string][]entity.LibraryEntry{}}
}

func (r *fakeLibraryRepo) List(_ context.Context, userID string) ([]entity.LibraryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.LibraryEntry, len(r.entries[userID]))
	copy(out, r.entries[userID])
	return out, nil
}

func (r *fakeLibraryRepo) Upsert(_ context.Context, userID string, e entity.LibraryEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lib := r.entries[userID]
	for i := range lib {
		if lib[i].BookID == e.BookID {
			lib[i] = e
			return false, nil
		}
	}
	r.entries[userID] = append(lib, e)
	return true, nil
}

func (r *fakeLibraryRepo) UpdateStatus(_ context.Context, userID, bookID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lib := r.entries[userID]
	for i := range lib {
		if lib[i].BookID == bookID {
			lib[i].Status = status
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeLibraryRepo) Remove(_ context.Context, userID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lib := r.entries[userID]
	for i := range lib {
		if lib[i].BookID == bookID {
			r.entries[userID] = append(lib[:i], lib[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type testEnv struct {
	engine *gin.Engine
	jwt    *helpers.JWTManager
	users  *fakeUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	cfg := &config.Config{
		ResetTokenTTL:    time.Hour,
		ResetPasswordURL: "http://localhost:3000/reset-password",
	}
	users := newFakeUserRepo()
	entries := newFakeLibraryRepo()
	jwtManager := helpers.NewJWTManager("test_secret", time.Hour)

	authSvc := application.NewAuthService(users, jwtManager, nil)
	resetSvc := application.NewResetService(users, cfg.ResetTokenTTL, nil)
	librarySvc := application.NewLibraryService(users, entries, nil)

	authHandler := handlers.NewAuthHandler(authSvc, resetSvc, nil, nil, cfg)
	libraryHandler := handlers.NewLibraryHandler(librarySvc, nil)

	engine := gin.New()
	reg := router.NewRegistry(engine)
	reg.Add(modules.NewAuthModule(authHandler, libraryHandler, jwtManager))
	reg.RegisterAll()

	return &testEnv{engine: engine, jwt: jwtManager, users: users}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (e *testEnv) register(t *testing.T, name, email, password string) {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": name, "email": email, "password": password,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": password,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	return data.Token
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "A", "a@x.com", "pw123456")
	token := env.login(t, "a@x.com", "pw123456")

	claims, err := env.jwt.Parse(token)
	assert.NoError(t, err)
	u, err := env.users.GetByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// Duplicate registration rejected
	w, _ := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "A2", "email": "a@x.com", "password": "pw123456",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong password and unknown email produce identical responses
	w1, env1 := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "wrong-pass"})
	w2, env2 := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@x.com", "password": "pw123456"})
	assert.Equal(t, http.StatusBadRequest, w1.Code)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
	assert.Equal(t, env1.Message, env2.Message)
}

func TestBearerAuth(t *testing.T) {
	env := newTestEnv(t)

	// Missing token
	w, _ := env.do(t, http.MethodGet, "/api/auth/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w, _ = env.do(t, http.MethodGet, "/api/auth/user", "not.a.jwt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Expired token gets the same generic message as a bad signature
	expired := helpers.NewJWTManager("test_secret", -time.Minute)
	tok, _, err := expired.Generate("user-1", entity.RoleUser)
	assert.NoError(t, err)
	w, envExpired := env.do(t, http.MethodGet, "/api/auth/user", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	wrongKey := helpers.NewJWTManager("other_secret", time.Hour)
	tok2, _, err := wrongKey.Generate("user-1", entity.RoleUser)
	assert.NoError(t, err)
	w, envBadSig := env.do(t, http.MethodGet, "/api/auth/user", tok2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, envExpired.Message, envBadSig.Message)
}

func TestLibraryScenario(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "pw123456")
	token := env.login(t, "a@x.com", "pw123456")

	libOf := func(e envelope) []entity.LibraryEntry {
		var lib []entity.LibraryEntry
		assert.NoError(t, json.Unmarshal(e.Data, &lib))
		return lib
	}

	// Add b1 -> 201, library has exactly it
	w, resp := env.do(t, http.MethodPut, "/api/auth/library", token, gin.H{
		"bookId": "b1", "title": "T1", "author": "Au", "status": "Reading",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	lib := libOf(resp)
	assert.Len(t, lib, 1)
	assert.Equal(t, "b1", lib[0].BookID)
	assert.Equal(t, "Reading", lib[0].Status)

	// Same book again -> 200, still one entry (idempotent upsert)
	w, resp = env.do(t, http.MethodPut, "/api/auth/library", token, gin.H{
		"bookId": "b1", "title": "T1", "author": "Au", "status": "Reading",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, libOf(resp), 1)

	// Status transition
	w, resp = env.do(t, http.MethodPut, "/api/auth/library/status", token, gin.H{
		"bookId": "b1", "status": "Completed",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	lib = libOf(resp)
	assert.Len(t, lib, 1)
	assert.Equal(t, "Completed", lib[0].Status)
	assert.Equal(t, "T1", lib[0].Title)

	// Status update for a book never added: 404, library untouched
	w, _ = env.do(t, http.MethodPut, "/api/auth/library/status", token, gin.H{
		"bookId": "nope", "status": "Completed",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, resp = env.do(t, http.MethodGet, "/api/auth/user", token, nil)
	var profile struct {
		Name    string                `json:"name"`
		Email   string                `json:"email"`
		Library []entity.LibraryEntry `json:"library"`
	}
	assert.NoError(t, json.Unmarshal(resp.Data, &profile))
	assert.Equal(t, "A", profile.Name)
	assert.Len(t, profile.Library, 1)
	assert.Equal(t, "Completed", profile.Library[0].Status)
	// Projection never leaks credentials
	assert.NotContains(t, string(resp.Data), "password")
	assert.NotContains(t, string(resp.Data), "reset")

	// Delete -> empty library
	w, resp = env.do(t, http.MethodDelete, "/api/auth/library/b1", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, libOf(resp))

	// Deleting again: 404
	w, _ = env.do(t, http.MethodDelete, "/api/auth/library/b1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLibraryValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "pw123456")
	token := env.login(t, "a@x.com", "pw123456")

	// Missing required fields
	w, _ := env.do(t, http.MethodPut, "/api/auth/library", token, gin.H{"bookId": "b1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/auth/library/status", token, gin.H{"status": "Reading"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "pw123456")

	// Unknown email is a 400
	w, _ := env.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/auth/request-password-reset", "", gin.H{"email": "a@x.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	u, err := env.users.GetByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
	assert.NotNil(t, u.ResetToken)
	token := *u.ResetToken

	// Consume it
	w, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": token, "newPassword": "newpass123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Old password no longer works, new one does
	w, _ = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@x.com", "password": "pw123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.login(t, "a@x.com", "newpass123")

	// Single use: replaying the token fails
	w, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": token, "newPassword": "another123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordResetExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "A", "a@x.com", "pw123456")

	u, err := env.users.GetByEmail(context.Background(), "a@x.com")
	assert.NoError(t, err)
	expiry := time.Now().Add(-time.Minute)
	assert.NoError(t, env.users.SetResetToken(context.Background(), u.ID, "staletoken", expiry))

	w, _ := env.do(t, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token": "staletoken", "newPassword": "newpass123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Password unchanged
	env.login(t, "a@x.com", "pw123456")
}
