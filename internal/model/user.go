package model

import "strings"

// Role 用户角色，注册后不可变更
type Role string

const (
	RoleMentor Role = "MENTOR"
	RoleMentee Role = "MENTEE"
)

// ParseRole 将外部输入（大小写不敏感）归一化为 Role
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleMentor:
		return RoleMentor, true
	case RoleMentee:
		return RoleMentee, true
	}
	return "", false
}

// Slug 小写形式，用于 URL 路径（/images/mentor/1）
func (r Role) Slug() string {
	return strings.ToLower(string(r))
}

// ImageKind 头像存储形态
type ImageKind string

const (
	ImageNone   ImageKind = "none"
	ImageFile   ImageKind = "file"   // 对象存储中的文件
	ImageInline ImageKind = "inline" // 内联存储的图片字节
)

// ImageRef 头像的标签联合：None | File(path) | Inline(bytes, mime)
// 写入时显式选定形态，读取时不再做前缀嗅探
type ImageRef struct {
	Kind     ImageKind
	Path     string
	Data     []byte
	MIMEType string
}

// NoImage 无头像
func NoImage() ImageRef { return ImageRef{Kind: ImageNone} }

// FileImage 指向对象存储中的文件
func FileImage(path string) ImageRef { return ImageRef{Kind: ImageFile, Path: path} }

// InlineImage 内联图片数据
func InlineImage(data []byte, mimeType string) ImageRef {
	return ImageRef{Kind: ImageInline, Data: data, MIMEType: mimeType}
}

// User 用户表 对应 users
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"                json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"  json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"              json:"-"`
	Name         string    `gorm:"type:varchar(100);not null"              json:"name"`
	Role         Role      `gorm:"type:varchar(20);not null;index"         json:"role"`
	Bio          *string   `gorm:"type:text"                               json:"bio,omitempty"`
	Skills       SkillList `gorm:"type:text"                               json:"skills,omitempty"`
	ImageKind    ImageKind `gorm:"type:varchar(10);not null;default:'none'" json:"-"`
	ImagePath    string    `gorm:"type:varchar(500)"                       json:"-"`
	ImageData    []byte    `json:"-"`
	ImageMIME    string    `gorm:"type:varchar(50)"                        json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Image 读取头像
func (u *User) Image() ImageRef {
	switch u.ImageKind {
	case ImageFile:
		return FileImage(u.ImagePath)
	case ImageInline:
		return InlineImage(u.ImageData, u.ImageMIME)
	default:
		return NoImage()
	}
}

// SetImage 写入头像，同时清空其他形态的残留字段
func (u *User) SetImage(img ImageRef) {
	u.ImageKind = img.Kind
	u.ImagePath = ""
	u.ImageData = nil
	u.ImageMIME = ""
	switch img.Kind {
	case ImageFile:
		u.ImagePath = img.Path
	case ImageInline:
		u.ImageData = img.Data
		u.ImageMIME = img.MIMEType
	default:
		u.ImageKind = ImageNone
	}
}

// HasImage 是否设置了头像
func (u *User) HasImage() bool {
	return u.ImageKind == ImageFile || u.ImageKind == ImageInline
}
