package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/booksdb/internal/infrastructure/config"
)

func corsEngine(cfg config.CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/books", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/books", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	return r
}

func serve(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/books", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	cfg := config.CORSConfig{
		Enabled:          true,
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}
	r := corsEngine(cfg)

	t.Run("允许的Origin", func(t *testing.T) {
		w := serve(r, http.MethodGet, "http://localhost:3000")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("拒绝未知Origin", func(t *testing.T) {
		w := serve(r, http.MethodGet, "http://evil.example")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("预检请求", func(t *testing.T) {
		w := serve(r, http.MethodOptions, "http://localhost:3000")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("同源请求不加头", func(t *testing.T) {
		w := serve(r, http.MethodGet, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("未启用", func(t *testing.T) {
		w := serve(corsEngine(config.CORSConfig{}), http.MethodOptions, "http://evil.example")
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("通配", func(t *testing.T) {
		w := serve(corsEngine(config.CORSConfig{Enabled: true, AllowOrigins: []string{"*"}}), http.MethodGet, "http://any.example")
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Max-Age"))
	})
}
