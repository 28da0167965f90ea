package dto

// ── 认证模块 DTO ──

// SignupRequest 注册请求
// 字段空白、角色取值等业务校验在 Service 层完成
type SignupRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"     binding:"required"`
	Role     string `json:"role"     binding:"required"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录成功响应
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MessageResponse 仅含提示信息的响应
type MessageResponse struct {
	Message string `json:"message"`
}
