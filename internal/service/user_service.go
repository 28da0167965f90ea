package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-match/internal/dto"
	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	"mentor-match/pkg/storage"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidImage      = errors.New("invalid image format, only JPEG and PNG are allowed")
	ErrImageTooLarge     = errors.New("image size must be at most 1MB")
	ErrUnsupportedUpload = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrEmptyUpload       = errors.New("image file is required")
	ErrInvalidID         = errors.New("invalid user id")
)

// MaxImageBytes 头像大小上限（解码后字节数，含边界）
const MaxImageBytes = 1 << 20

var inlineImagePattern = regexp.MustCompile(`^data:image/(jpeg|jpg|png);base64,`)

// 上传接口允许的类型 → 文件扩展名
var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ProfileImage 公开头像接口的结果：重定向地址或图片字节二选一
type ProfileImage struct {
	RedirectURL string
	Data        []byte
	MIMEType    string
}

// UserService 个人资料业务接口
type UserService interface {
	GetMe(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, caller Caller, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UploadProfileImage(ctx context.Context, userID int64, r io.Reader) (*dto.UploadImageResponse, error)
	GetProfileImage(ctx context.Context, role, id string) (*ProfileImage, error)
}

type userService struct {
	repo   *repository.Repository
	store  storage.Storage
	links  imageLinker
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, store storage.Storage, links imageLinker, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		store:  store,
		links:  links,
		logger: logger,
		now:    time.Now,
	}
}

func (s *userService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) GetMe(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := s.links.toUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, caller Caller, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	// 1. 先校验图片，避免无效请求触达数据库
	var image *model.ImageRef
	if req.Image != nil && *req.Image != "" {
		img, err := decodeInlineImage(*req.Image)
		if err != nil {
			return nil, err
		}
		image = &img
	}

	user, err := s.getUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	previous := user.Image()

	// 2. 合并字段：bio 未传则保持不变；skills 仅导师可写
	user.Name = name
	if req.Bio != nil {
		bio := *req.Bio
		user.Bio = &bio
	}
	if user.Role == model.RoleMentor && req.Skills != nil {
		user.Skills = model.SkillList(req.Skills)
	}
	if image != nil {
		user.SetImage(*image)
	}

	if err := s.repo.User.UpdateProfile(ctx, user, image != nil); err != nil {
		s.logger.Error("更新个人资料失败", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	// 旧的文件头像被内联图片替换后清理
	if image != nil && previous.Kind == model.ImageFile {
		s.removeFile(ctx, previous.Path)
	}

	resp := s.links.toUserResponse(user)
	return &resp, nil
}

// decodeInlineImage 解析 data:image/...;base64, 形式的图片
func decodeInlineImage(raw string) (model.ImageRef, error) {
	m := inlineImagePattern.FindStringSubmatch(raw)
	if m == nil {
		return model.ImageRef{}, ErrInvalidImage
	}
	payload := raw[len(m[0]):]

	// 先按编码长度粗筛，避免为超大输入分配内存
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return model.ImageRef{}, ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return model.ImageRef{}, ErrInvalidImage
	}
	if len(data) > MaxImageBytes {
		return model.ImageRef{}, ErrImageTooLarge
	}

	subtype := m[1]
	if subtype == "jpg" {
		subtype = "jpeg"
	}
	return model.InlineImage(data, "image/"+subtype), nil
}

func (s *userService) UploadProfileImage(ctx context.Context, userID int64, r io.Reader) (*dto.UploadImageResponse, error) {
	// 1. 读取（多读 1 字节用于判断超限）
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	// 2. 按内容嗅探类型，不信任客户端声明
	mime := mimetype.Detect(data)
	ext, ok := uploadExtensions[mime.String()]
	if !ok {
		return nil, ErrUnsupportedUpload
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Image()

	// 3. 写入存储
	key := fmt.Sprintf("%d_%d%s", userID, s.now().UnixMilli(), ext)
	if err := s.store.Save(ctx, key, bytes.NewReader(data), mime.String()); err != nil {
		s.logger.Error("保存头像文件失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	// 4. 更新用户；失败时删除刚写入的文件
	user.SetImage(model.FileImage(key))
	if err := s.repo.User.UpdateImage(ctx, user); err != nil {
		s.logger.Error("更新头像失败", zap.Int64("user_id", userID), zap.Error(err))
		s.removeFile(ctx, key)
		return nil, err
	}

	if previous.Kind == model.ImageFile && previous.Path != key {
		s.removeFile(ctx, previous.Path)
	}

	return &dto.UploadImageResponse{
		ImageURL: s.links.fileURL(key),
		Message:  "Profile image uploaded successfully",
	}, nil
}

// removeFile 尽力删除，失败只记日志
func (s *userService) removeFile(ctx context.Context, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("删除头像文件失败", zap.String("key", key), zap.Error(err))
	}
}

func (s *userService) GetProfileImage(ctx context.Context, role, id string) (*ProfileImage, error) {
	var r model.Role
	switch role {
	case model.RoleMentor.Slug():
		r = model.RoleMentor
	case model.RoleMentee.Slug():
		r = model.RoleMentee
	default:
		return nil, ErrInvalidRole
	}

	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrInvalidID
	}

	user, err := s.repo.User.GetByIDAndRole(ctx, userID, r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	img := user.Image()
	switch img.Kind {
	case model.ImageInline:
		return &ProfileImage{Data: img.Data, MIMEType: img.MIMEType}, nil
	case model.ImageFile:
		return &ProfileImage{RedirectURL: s.links.fileURL(img.Path)}, nil
	default:
		return &ProfileImage{RedirectURL: placeholderURL(string(r))}, nil
	}
}
