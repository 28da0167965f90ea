package dto

import "time"

// ListMentorsQuery 导师列表查询参数
type ListMentorsQuery struct {
	Skill   string `form:"skill"`
	OrderBy string `form:"order_by"`
}

// MentorResponse 导师列表项
type MentorResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Skills    []string  `json:"skills"`
	HasImage  bool      `json:"hasImage"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}
