package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	appuser "github.com/xiebiao/booksdb/internal/application/user"
	"github.com/xiebiao/booksdb/internal/domain/library"
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/booksdb/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/booksdb/internal/interface/http/handler"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	"github.com/xiebiao/booksdb/internal/interface/http/router"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/jwt"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t      *testing.T
	engine http.Handler
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := zap.NewNop()

	repo := memory.NewRepository()
	require.NoError(t, repo.Connect(context.Background(), ""))
	svc := library.NewService(repo)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := redis.NewSessionStore(client)
	jwtManager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	pub := applibrary.NopPublisher{}

	engine := router.New(config.ServerConfig{
		Mode: "test",
		CORS: config.CORSConfig{Enabled: true, AllowOrigins: []string{"*"}},
	}, router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewLoginUseCase(svc, jwtManager, sessions, 24*time.Hour, log),
			appuser.NewLogoutUseCase(jwtManager, sessions),
			appuser.NewRefreshUseCase(jwtManager, sessions),
		),
		Book: handler.NewBookHandler(
			applibrary.NewSearchBooksUseCase(svc),
			applibrary.NewAddBookUseCase(svc, pub, log),
			applibrary.NewRemoveBookUseCase(svc, pub, log),
			applibrary.NewAddReviewUseCase(svc, pub, log),
		),
		Catalog: handler.NewCatalogHandler(
			applibrary.NewListAuthorsUseCase(svc),
			applibrary.NewAddAuthorUseCase(svc),
			applibrary.NewListGenresUseCase(svc),
			applibrary.NewAddGenreUseCase(svc),
		),
		Auth: middleware.NewAuthMiddleware(jwtManager, sessions),
	}, log)

	return &server{t: t, engine: engine}
}

func (s *server) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *server) login() appuser.LoginResponse {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/users/login", map[string]string{"username": "admin", "password": "x"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp appuser.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	s.token = resp.AccessToken
	return resp
}

func TestRouter_Ping(t *testing.T) {
	s := newServer(t)
	w, env := s.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Search(t *testing.T) {
	s := newServer(t)

	t.Run("按书名", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/books?q=databases", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var books []applibrary.BookDTO
		require.NoError(t, json.Unmarshal(env.Data, &books))
		assert.Len(t, books, 2)
	})

	t.Run("无结果返回空数组", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/books?mode=isbn&q=000", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("缺少查询参数", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/books", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeBindError, env.Code)
	})

	t.Run("评分搜索输入非数字", func(t *testing.T) {
		w, env := s.do(http.MethodGet, "/api/v1/books?mode=rating&q=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
	})
}

func TestRouter_RequiresAuth(t *testing.T) {
	s := newServer(t)
	w, env := s.do(http.MethodPost, "/api/v1/books", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

	s.token = "garbage"
	w, env = s.do(http.MethodDelete, "/api/v1/books/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidToken, env.Code)
}

func TestRouter_BookLifecycle(t *testing.T) {
	s := newServer(t)
	s.login()

	w, env := s.do(http.MethodPost, "/api/v1/books", map[string]interface{}{
		"isbn":       "9781111111111",
		"title":      "Klara and the Sun",
		"publisher":  "Faber",
		"author_ids": []int{3},
		"genre_ids":  []int{3},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var book applibrary.BookDTO
	require.NoError(t, json.Unmarshal(env.Data, &book))
	assert.Equal(t, "admin", book.AddedBy)

	w, _ = s.do(http.MethodPost, "/api/v1/books/"+strconv.Itoa(book.ID)+"/reviews", map[string]interface{}{"rating": 4, "text": "good"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/v1/books/"+strconv.Itoa(book.ID)+"/reviews", map[string]interface{}{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code, "评分超出范围")

	_, env = s.do(http.MethodGet, "/api/v1/books?mode=rating&q=4", nil)
	var rated []applibrary.BookDTO
	require.NoError(t, json.Unmarshal(env.Data, &rated))
	require.Len(t, rated, 1)
	assert.Equal(t, 4.0, rated[0].Rating)

	w, _ = s.do(http.MethodDelete, "/api/v1/books/"+strconv.Itoa(book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodDelete, "/api/v1/books/"+strconv.Itoa(book.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ErrCodeDelete, env.Code)
}

func TestRouter_AuthorsAndGenres(t *testing.T) {
	s := newServer(t)
	s.login()

	w, _ := s.do(http.MethodPost, "/api/v1/authors", map[string]string{"name": "Ursula K. Le Guin", "birthdate": "1929-10-21"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/authors", map[string]string{"name": "x", "birthdate": "21/10/1929"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeBindError, env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/genres", map[string]string{"name": "Poetry"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = s.do(http.MethodPost, "/api/v1/genres", map[string]string{"name": "poetry"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrCodeInsert, env.Code)

	_, env = s.do(http.MethodGet, "/api/v1/genres", nil)
	var genres []applibrary.GenreDTO
	require.NoError(t, json.Unmarshal(env.Data, &genres))
	assert.Len(t, genres, 4)
}

func TestRouter_Logout(t *testing.T) {
	s := newServer(t)
	resp := s.login()

	w, _ := s.do(http.MethodPost, "/api/v1/users/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodPost, "/api/v1/genres", map[string]string{"name": "Poetry"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "登出后Token失效")
	assert.Equal(t, apperrors.ErrCodeTokenExpired, env.Code)

	s.token = ""
	w, _ = s.do(http.MethodPost, "/api/v1/users/refresh", map[string]string{"refresh_token": resp.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
