package handler

import "mentor-match/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Mentor       *MentorHandler
	MatchRequest *MatchRequestHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Mentor:       NewMentorHandler(svc.Mentor),
		MatchRequest: NewMatchRequestHandler(svc.MatchRequest),
		Export:       NewExportHandler(svc.Export),
	}
}
