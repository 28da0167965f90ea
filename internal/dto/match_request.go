package dto

import "time"

// ── 匹配请求模块 DTO ──

// CreateMatchRequestRequest 发起匹配请求
// ID 使用指针以区分"未传"与 0
type CreateMatchRequestRequest struct {
	MentorID *int64 `json:"mentorId" binding:"required"`
	MenteeID *int64 `json:"menteeId" binding:"required"`
	Message  string `json:"message"  binding:"required"`
}

// MatchStatusResponse 状态变更结果
type MatchStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// MenteeSummary 收到的请求中附带的学员信息
type MenteeSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	HasImage bool   `json:"hasImage"`
	ImageURL string `json:"imageUrl"`
}

// MentorSummary 发出的请求中附带的导师信息
type MentorSummary struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Bio      string   `json:"bio"`
	Skills   []string `json:"skills"`
	HasImage bool     `json:"hasImage"`
	ImageURL string   `json:"imageUrl"`
}

// IncomingRequestResponse 导师收到的请求
type IncomingRequestResponse struct {
	ID        int64         `json:"id"`
	Message   string        `json:"message"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Mentee    MenteeSummary `json:"mentee"`
}

// OutgoingRequestResponse 学员发出的请求
type OutgoingRequestResponse struct {
	ID        int64         `json:"id"`
	Message   string        `json:"message"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Mentor    MentorSummary `json:"mentor"`
}
