package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// Response 统一响应结构
// Code是业务错误码(0表示成功),客户端按Code判断错误类型,HTTP状态码只做粗分类
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// Error 错误响应
// 原始错误记入c.Errors,由日志中间件统一输出;响应只包含用户可读的信息
// 响应码是最外层错误码(存储错误即类别码),HTTP状态码优先取内层的客户端原因
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	status := Status(appErr.Code)
	if cause := apperrors.ClientCause(err); cause != nil {
		status = Status(cause.Code)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(Status(code), Response{Code: code, Message: message})
}

// Status 业务错误码 → HTTP状态码
func Status(code int) int {
	switch {
	case code == apperrors.ErrCodeConnection:
		return http.StatusServiceUnavailable
	case code >= 50000:
		return http.StatusInternalServerError
	case code >= 40900 && code < 41000:
		return http.StatusBadRequest
	case code >= 40400 && code < 40500:
		return http.StatusNotFound
	case code >= 40100 && code < 40200:
		return http.StatusUnauthorized
	case code == apperrors.ErrCodeDuplicateEntry:
		return http.StatusConflict
	case code >= 40000 && code < 40100:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}
