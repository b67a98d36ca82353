package handler

import (
	"github.com/gin-gonic/gin"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	"github.com/xiebiao/booksdb/internal/interface/http/dto"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/response"
)

// CatalogHandler 作者与类型
type CatalogHandler struct {
	listAuthors *applibrary.ListAuthorsUseCase
	addAuthor   *applibrary.AddAuthorUseCase
	listGenres  *applibrary.ListGenresUseCase
	addGenre    *applibrary.AddGenreUseCase
}

func NewCatalogHandler(
	listAuthors *applibrary.ListAuthorsUseCase,
	addAuthor *applibrary.AddAuthorUseCase,
	listGenres *applibrary.ListGenresUseCase,
	addGenre *applibrary.AddGenreUseCase,
) *CatalogHandler {
	return &CatalogHandler{
		listAuthors: listAuthors,
		addAuthor:   addAuthor,
		listGenres:  listGenres,
		addGenre:    addGenre,
	}
}

// ListAuthors 作者列表
// @Summary      作者列表
// @Tags         作者
// @Produce      json
// @Success      200 {object} response.Response{data=[]applibrary.AuthorDTO}
// @Router       /api/v1/authors [get]
func (h *CatalogHandler) ListAuthors(c *gin.Context) {
	authors, err := h.listAuthors.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, authors)
}

// AddAuthor 添加作者
// @Summary      添加作者
// @Tags         作者
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddAuthorRequest true "作者信息"
// @Success      201 {object} response.Response{data=applibrary.AuthorDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/authors [post]
func (h *CatalogHandler) AddAuthor(c *gin.Context) {
	var req dto.AddAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	author, err := h.addAuthor.Execute(c.Request.Context(), middleware.GetSession(c), applibrary.AddAuthorRequest{
		Name:      req.Name,
		Birthdate: req.Birthdate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, author)
}

// ListGenres 类型列表(按名称排序)
// @Summary      类型列表
// @Tags         类型
// @Produce      json
// @Success      200 {object} response.Response{data=[]applibrary.GenreDTO}
// @Router       /api/v1/genres [get]
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	genres, err := h.listGenres.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, genres)
}

// AddGenre 添加类型
// @Summary      添加类型
// @Tags         类型
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddGenreRequest true "类型名称"
// @Success      201 {object} response.Response{data=applibrary.GenreDTO}
// @Failure      409 {object} response.Response "类型已存在"
// @Router       /api/v1/genres [post]
func (h *CatalogHandler) AddGenre(c *gin.Context) {
	var req dto.AddGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	genre, err := h.addGenre.Execute(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, genre)
}
