package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/booksdb/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/books/:id", func(c *gin.Context) {
		if c.Param("id") == "0" {
			_ = c.Error(errors.New("boom"))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	metrics.InitMetrics()
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/books/:id", "200"))

	t.Run("沿用上游请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		req.Header.Set("X-Request-ID", "req-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
		entries := logs.FilterMessage("请求完成").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/books/:id", "200")))
	})

	t.Run("服务端错误记为Error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/0", nil))

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		entries := logs.FilterMessage("请求失败").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Contains(t, entries[0].ContextMap()["error"], "boom")
	})

	t.Run("未匹配的路由", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")), 1.0)
	})
}
