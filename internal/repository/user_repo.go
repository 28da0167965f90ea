package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"mentor-match/internal/model"
)

// MentorOrder 导师列表排序字段
type MentorOrder string

const (
	MentorOrderID    MentorOrder = "id"
	MentorOrderName  MentorOrder = "name"
	MentorOrderSkill MentorOrder = "skill"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDAndRole(ctx context.Context, id int64, role model.Role) (*model.User, error)
	// UpdateProfile 只写 name/bio/skills，withImage 时连同头像列一起写入
	UpdateProfile(ctx context.Context, user *model.User, withImage bool) error
	// UpdateImage 只写头像列
	UpdateImage(ctx context.Context, user *model.User) error
	// ListMentors skill 非空时按技能 JSON 文本做子串匹配
	ListMentors(ctx context.Context, skill string, orderBy MentorOrder) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDAndRole(ctx context.Context, id int64, role model.Role) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", id, role).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

var (
	profileColumns = []string{"name", "bio", "skills"}
	imageColumns   = []string{"image_kind", "image_path", "image_data", "image_mime"}
)

func (r *userRepo) UpdateProfile(ctx context.Context, user *model.User, withImage bool) error {
	columns := profileColumns
	if withImage {
		columns = append(append([]string{}, profileColumns...), imageColumns...)
	}
	return r.updateColumns(ctx, user, columns)
}

func (r *userRepo) UpdateImage(ctx context.Context, user *model.User) error {
	return r.updateColumns(ctx, user, imageColumns)
}

// updateColumns 按列写入（Select 后零值同样写入，用于清空头像残留列）
// 未列出的列保持数据库中的值，避免并发请求用旧快照互相覆盖
func (r *userRepo) updateColumns(ctx context.Context, user *model.User, columns []string) error {
	result := r.db.WithContext(ctx).Model(user).Select(columns).Updates(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) ListMentors(ctx context.Context, skill string, orderBy MentorOrder) ([]model.User, error) {
	var users []model.User

	db := r.db.WithContext(ctx).Where("role = ?", model.RoleMentor)
	if skill != "" {
		db = db.Where("skills LIKE ? ESCAPE '\\'", "%"+escapeLike(skill)+"%")
	}

	switch orderBy {
	case MentorOrderName:
		db = db.Order("name ASC").Order("id ASC")
	case MentorOrderSkill:
		db = db.Order("skills ASC").Order("id ASC")
	default:
		db = db.Order("id ASC")
	}

	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// escapeLike 转义 LIKE 通配符，保证按字面子串匹配
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
