package database

import (
	"fmt"

	"gorm.io/gorm"

	"mentor-match/internal/model"
)

// matchRequestIndexes 匹配请求不变量的数据库兜底：
//   - 每位导师至多一条 ACCEPTED
//   - 每位学员至多一条 PENDING
//   - 同一导师/学员对至多一条进行中的请求
//
// 与 migrations/000002 保持一致
var matchRequestIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_match_requests_mentor_accepted ON match_requests (mentor_id) WHERE status = 'ACCEPTED'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_match_requests_mentee_pending ON match_requests (mentee_id) WHERE status = 'PENDING'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_match_requests_pair_active ON match_requests (mentor_id, mentee_id) WHERE status IN ('PENDING', 'ACCEPTED')`,
}

// PrepareSQLite 为 SQLite 建表（golang-migrate 的迁移文件仅面向 PostgreSQL）
func PrepareSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.MatchRequest{}); err != nil {
		return fmt.Errorf("AutoMigrate 失败: %w", err)
	}
	for _, stmt := range matchRequestIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("创建索引失败: %w", err)
		}
	}
	return nil
}
