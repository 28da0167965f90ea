package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 技能列表自定义类型 ──

// SkillList 以 JSON 数组文本形式存储（如 ["Go","React"]），实现 GORM Scanner/Valuer 接口。
// 列类型保持为 text，便于按原始文本做子串过滤与排序。
type SkillList []string

// Scan 将数据库中的 JSON 文本解析为 []string。
func (s *SkillList) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("SkillList.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		// 历史脏数据按空列表处理，不阻断整条查询
		*s = SkillList{}
		return nil
	}
	*s = list
	return nil
}

// Value 将 []string 序列化为 JSON 文本；nil 写入 NULL。
func (s SkillList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Strings 返回非 nil 的切片，便于直接序列化为 JSON 数组
func (s SkillList) Strings() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

// BaseModel 通用时间戳字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
