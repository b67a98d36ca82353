package handler

import (
	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/booksdb/internal/application/user"
	"github.com/xiebiao/booksdb/internal/interface/http/dto"
	"github.com/xiebiao/booksdb/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
	"github.com/xiebiao/booksdb/pkg/response"
)

// UserHandler 用户HTTP处理器
// Handler只负责解析请求、调用用例、返回响应
type UserHandler struct {
	loginUseCase   *appuser.LoginUseCase
	logoutUseCase  *appuser.LogoutUseCase
	refreshUseCase *appuser.RefreshUseCase
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	refreshUseCase *appuser.RefreshUseCase,
) *UserHandler {
	return &UserHandler{
		loginUseCase:   loginUseCase,
		logoutUseCase:  logoutUseCase,
		refreshUseCase: refreshUseCase,
	}
}

// Login 用户登录
// @Summary      用户登录
// @Description  校验用户名密码，返回JWT Token
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appuser.LoginResponse} "登录成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "用户名或密码错误"
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logout 用户登出
// @Summary      用户登出
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}
	if err := h.logoutUseCase.Execute(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Tags         用户
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=dto.RefreshResponse}
// @Failure      401 {object} response.Response "Token无效或已登出"
// @Router       /api/v1/users/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	token, err := h.refreshUseCase.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.RefreshResponse{AccessToken: token})
}
