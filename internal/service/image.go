package service

import (
	"fmt"
	"net/url"
	"strings"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/pkg/storage"
)

const placeholderBase = "https://placehold.co/500x500.jpg?text="

// placeholderURL 无头像时的占位图
func placeholderURL(text string) string {
	return placeholderBase + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// imageLinker 根据头像形态生成对外 URL
type imageLinker struct {
	baseURL string
	store   storage.Storage
}

func newImageLinker(baseURL string, store storage.Storage) imageLinker {
	return imageLinker{baseURL: strings.TrimRight(baseURL, "/"), store: store}
}

// endpointURL 公开头像接口地址：<base>/api/images/<role>/<id>
func (l imageLinker) endpointURL(role model.Role, id int64) string {
	return fmt.Sprintf("%s/api/images/%s/%d", l.baseURL, role.Slug(), id)
}

// fileURL 对象存储中的文件地址
func (l imageLinker) fileURL(key string) string {
	if l.store == nil {
		return ""
	}
	return l.store.URL(key)
}

// imageURL 文件引用 → 存储地址；内联 → 头像接口；无头像 → ""
func (l imageLinker) imageURL(u *model.User) string {
	img := u.Image()
	switch img.Kind {
	case model.ImageFile:
		return l.fileURL(img.Path)
	case model.ImageInline:
		return l.endpointURL(u.Role, u.ID)
	default:
		return ""
	}
}

// toUserResponse 当前用户信息投影
func (l imageLinker) toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		FullName:  u.Name,
		Role:      string(u.Role),
		Bio:       u.Bio,
		HasImage:  u.HasImage(),
		ImageURL:  l.imageURL(u),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Role == model.RoleMentor {
		skills := u.Skills.Strings()
		resp.Skills = &skills
	}
	return resp
}

func bioOrEmpty(bio *string) string {
	if bio == nil {
		return ""
	}
	return *bio
}
