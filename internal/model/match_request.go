package model

// MatchStatus 匹配请求状态
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "PENDING"
	MatchStatusAccepted MatchStatus = "ACCEPTED"
	MatchStatusRejected MatchStatus = "REJECTED"
	// MatchStatusCancelled 保留在枚举中；取消操作实际为物理删除
	MatchStatusCancelled MatchStatus = "CANCELLED"
)

// ActiveMatchStatuses 视为"进行中"的状态集合
var ActiveMatchStatuses = []MatchStatus{MatchStatusPending, MatchStatusAccepted}

// IsActive 是否处于进行中（PENDING / ACCEPTED）
func (s MatchStatus) IsActive() bool {
	return s == MatchStatusPending || s == MatchStatusAccepted
}

// MatchRequest 匹配请求表 对应 match_requests
type MatchRequest struct {
	ID       int64       `gorm:"primaryKey;autoIncrement"                    json:"id"`
	MentorID int64       `gorm:"not null;index"                              json:"mentor_id"`
	MenteeID int64       `gorm:"not null;index"                              json:"mentee_id"`
	Message  string      `gorm:"type:text;not null"                          json:"message"`
	Status   MatchStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	BaseModel

	// 关联
	Mentor *User `gorm:"foreignKey:MentorID;references:ID" json:"mentor,omitempty"`
	Mentee *User `gorm:"foreignKey:MenteeID;references:ID" json:"mentee,omitempty"`
}

// TableName 指定表名
func (MatchRequest) TableName() string { return "match_requests" }
