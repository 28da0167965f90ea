package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/dto"
	"mentor-match/internal/service"
	"mentor-match/pkg/response"
)

// MentorHandler 导师列表 HTTP 处理器
type MentorHandler struct {
	mentorSvc service.MentorService
}

// NewMentorHandler 创建 MentorHandler
func NewMentorHandler(mentorSvc service.MentorService) *MentorHandler {
	return &MentorHandler{mentorSvc: mentorSvc}
}

// ListMentors 导师列表（仅学员）
// GET /api/mentors?skill=&order_by=
func (h *MentorHandler) ListMentors(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var q dto.ListMentorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.mentorSvc.ListMentors(c.Request.Context(), caller, &q)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			response.Forbidden(c, response.CodeForbidden, "Only mentees can view the mentor list")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, list)
}
