package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/api/middleware"
	"mentor-match/internal/dto"
	"mentor-match/internal/service"
	"mentor-match/pkg/response"
)

// UserHandler 个人资料与头像 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// GetMe 当前用户信息
// GET /api/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateProfile 更新个人资料
// PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userSvc.UpdateProfile(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UploadImage 上传头像文件（multipart 字段 image）
// POST /api/profile/image
func (h *UserHandler) UploadImage(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "Request body too large")
			return
		}
		response.BadRequest(c, 12005, service.ErrEmptyUpload.Error())
		return
	}
	if fh.Size > service.MaxImageBytes {
		response.BadRequest(c, 12004, service.ErrImageTooLarge.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 12005, service.ErrEmptyUpload.Error())
		return
	}
	defer f.Close()

	result, err := h.userSvc.UploadProfileImage(c.Request.Context(), userID, f)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// GetImage 公开头像接口
// GET /api/images/:role/:id
func (h *UserHandler) GetImage(c *gin.Context) {
	img, err := h.userSvc.GetProfileImage(c.Request.Context(), c.Param("role"), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	if img.RedirectURL != "" {
		c.Redirect(http.StatusFound, img.RedirectURL)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "User not found")
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 12002, "Name is required")
	case errors.Is(err, service.ErrInvalidImage):
		response.BadRequest(c, 12003, "Invalid image format. Only JPEG and PNG are allowed.")
	case errors.Is(err, service.ErrImageTooLarge):
		response.BadRequest(c, 12004, "Image size must be less than 1MB")
	case errors.Is(err, service.ErrEmptyUpload):
		response.BadRequest(c, 12005, "Image file is required")
	case errors.Is(err, service.ErrUnsupportedUpload):
		response.BadRequest(c, 12006, "Only JPEG, PNG, and WebP images are allowed")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 12007, "Invalid role")
	case errors.Is(err, service.ErrInvalidID):
		response.BadRequest(c, 12008, "Invalid user ID")
	default:
		response.InternalError(c)
	}
}
