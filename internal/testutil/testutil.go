package testutil

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mentor-match/internal/model"
	"mentor-match/pkg/database"
)

// OpenInMemoryDB 打开以测试名命名的内存 SQLite 库并建表。
// 单连接：事务内外共享同一连接，避免 shared cache 的表锁。
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.PrepareSQLite(db); err != nil {
		t.Fatalf("prepare schema: %v", err)
	}
	return db
}

// CreateUser 直接落库一个用户（密码哈希为占位符，登录相关测试请自行哈希）
func CreateUser(t *testing.T, db *gorm.DB, name string, role model.Role, skills ...string) *model.User {
	t.Helper()
	u := &model.User{
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "$2a$12$placeholder",
		Name:         name,
		Role:         role,
		ImageKind:    model.ImageNone,
	}
	if len(skills) > 0 {
		u.Skills = model.SkillList(skills)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// CreateMatchRequest 直接落库一条匹配请求，绕过业务校验，用于构造边界数据
func CreateMatchRequest(t *testing.T, db *gorm.DB, mentorID, menteeID int64, status model.MatchStatus) *model.MatchRequest {
	t.Helper()
	mr := &model.MatchRequest{
		MentorID: mentorID,
		MenteeID: menteeID,
		Message:  "hello",
		Status:   status,
	}
	if err := db.Create(mr).Error; err != nil {
		t.Fatalf("create match request: %v", err)
	}
	return mr
}
