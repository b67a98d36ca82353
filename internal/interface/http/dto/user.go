package dto

// LoginRequest HTTP层登录请求
// 密码校验规则由存储后端决定,这里只限制长度
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"admin"`
	Password string `json:"password" binding:"max=100" example:"admin"`
}

// RefreshRequest 刷新Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse 刷新Token响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
