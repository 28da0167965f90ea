package dto

import "time"

// ── 用户模块 DTO ──

// UserResponse 当前用户信息（脱敏）
// skills 仅对 MENTOR 输出；无头像时不输出 imageUrl
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Bio       *string   `json:"bio"`
	Skills    *[]string `json:"skills,omitempty"`
	HasImage  bool      `json:"hasImage"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateProfileRequest 更新个人资料
// image 为 data:image/(jpeg|jpg|png);base64,... 形式的内联图片
type UpdateProfileRequest struct {
	Name   string   `json:"name"   binding:"required"`
	Bio    *string  `json:"bio"`
	Image  *string  `json:"image"`
	Skills []string `json:"skills"`
}

// UploadImageResponse 头像上传成功响应
type UploadImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Message  string `json:"message"`
}
