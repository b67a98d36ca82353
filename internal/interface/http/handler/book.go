package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	applibrary "github.com/xiebiao/booksdb/internal/application/library"
	"github.com/xiebiao/booksdb/internal/interface/http/dto"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	searchUseCase    *applibrary.SearchBooksUseCase
	addUseCase       *applibrary.AddBookUseCase
	removeUseCase    *applibrary.RemoveBookUseCase
	addReviewUseCase *applibrary.AddReviewUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	searchUseCase *applibrary.SearchBooksUseCase,
	addUseCase *applibrary.AddBookUseCase,
	removeUseCase *applibrary.RemoveBookUseCase,
	addReviewUseCase *applibrary.AddReviewUseCase,
) *BookHandler {
	return &BookHandler{
		searchUseCase:    searchUseCase,
		addUseCase:       addUseCase,
		removeUseCase:    removeUseCase,
		addReviewUseCase: addReviewUseCase,
	}
}

// SearchBooks 搜索图书
// @Summary      搜索图书
// @Description  按书名/ISBN/作者/类型/最低评分搜索，无结果时返回空列表
// @Tags         图书
// @Produce      json
// @Param        mode query string false "搜索方式" Enums(title, isbn, author, genre, rating)
// @Param        q    query string true  "搜索内容"
// @Success      200 {object} response.Response{data=[]applibrary.BookDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      503 {object} response.Response "存储不可用"
// @Router       /api/v1/books [get]
func (h *BookHandler) SearchBooks(c *gin.Context) {
	var q dto.SearchBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	books, err := h.searchUseCase.Execute(c.Request.Context(), applibrary.SearchRequest{Mode: q.Mode, Query: q.Query})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, books)
}

// AddBook 添加图书
// @Summary      添加图书
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddBookRequest true "图书信息"
// @Success      201 {object} response.Response{data=applibrary.BookDTO}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "作者或类型不存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) AddBook(c *gin.Context) {
	var req dto.AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	book, err := h.addUseCase.Execute(c.Request.Context(), middleware.GetSession(c), applibrary.AddBookRequest{
		ISBN:      req.ISBN,
		Title:     req.Title,
		Publisher: req.Publisher,
		AuthorIDs: req.AuthorIDs,
		GenreIDs:  req.GenreIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// RemoveBook 删除图书
// @Summary      删除图书
// @Tags         图书
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [delete]
func (h *BookHandler) RemoveBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if err := h.removeUseCase.Execute(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AddReview 为图书评分
// @Summary      评分
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                  true "图书ID"
// @Param        request body dto.AddReviewRequest true "评分"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response "评分超出范围"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/reviews [post]
func (h *BookHandler) AddReview(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req dto.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	err := h.addReviewUseCase.Execute(c.Request.Context(), middleware.GetSession(c), applibrary.AddReviewRequest{
		BookID: id,
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, nil)
}

func bookID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "图书ID无效: "+c.Param("id"))
		return 0, false
	}
	return id, true
}
