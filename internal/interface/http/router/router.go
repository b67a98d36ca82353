// Package router 注册HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/xiebiao/booksdb/docs" // swagger文档
	"github.com/xiebiao/booksdb/internal/infrastructure/config"
	"github.com/xiebiao/booksdb/internal/interface/http/handler"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	"github.com/xiebiao/booksdb/pkg/metrics"
	"github.com/xiebiao/booksdb/pkg/response"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	User    *handler.UserHandler
	Book    *handler.BookHandler
	Catalog *handler.CatalogHandler
	Auth    *middleware.AuthMiddleware
}

// New 创建Gin引擎
// 中间件顺序：Recovery → Tracing → Logger → CORS → 路由匹配 → Auth（如果有） → Handler
func New(cfg config.ServerConfig, h Handlers, log *zap.Logger) *gin.Engine {
	gin.SetMode(cfg.Mode)
	metrics.InitMetrics()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Tracing(), middleware.Logger(log), middleware.CORS(cfg.CORS))

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := h.Auth.RequireAuth()

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/login", h.User.Login)
			users.POST("/refresh", h.User.Refresh)
			users.POST("/logout", auth, h.User.Logout)
		}

		books := v1.Group("/books")
		{
			books.GET("", h.Book.SearchBooks)
			books.POST("", auth, h.Book.AddBook)
			books.DELETE("/:id", auth, h.Book.RemoveBook)
			books.POST("/:id/reviews", auth, h.Book.AddReview)
		}

		authors := v1.Group("/authors")
		{
			authors.GET("", h.Catalog.ListAuthors)
			authors.POST("", auth, h.Catalog.AddAuthor)
		}

		genres := v1.Group("/genres")
		{
			genres.GET("", h.Catalog.ListGenres)
			genres.POST("", auth, h.Catalog.AddGenre)
		}
	}

	return r
}
