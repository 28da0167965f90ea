package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/dto"
	"mentor-match/internal/service"
	"mentor-match/pkg/response"
)

// MatchRequestHandler 匹配请求 HTTP 处理器
type MatchRequestHandler struct {
	matchSvc service.MatchRequestService
}

// NewMatchRequestHandler 创建 MatchRequestHandler
func NewMatchRequestHandler(matchSvc service.MatchRequestService) *MatchRequestHandler {
	return &MatchRequestHandler{matchSvc: matchSvc}
}

// Create 学员发起匹配请求
// POST /api/match-requests
func (h *MatchRequestHandler) Create(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateMatchRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.matchSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.OK(c, result)
}

// ListIncoming 导师收到的请求
// GET /api/match-requests/incoming
func (h *MatchRequestHandler) ListIncoming(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.matchSvc.ListIncoming(c.Request.Context(), caller)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.OK(c, list)
}

// ListOutgoing 学员发出的请求
// GET /api/match-requests/outgoing
func (h *MatchRequestHandler) ListOutgoing(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.matchSvc.ListOutgoing(c.Request.Context(), caller)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.OK(c, list)
}

// Accept 接受请求
// PUT /api/match-requests/:id/accept
func (h *MatchRequestHandler) Accept(c *gin.Context) {
	h.transition(c, h.matchSvc.Accept)
}

// Reject 拒绝请求
// PUT /api/match-requests/:id/reject
func (h *MatchRequestHandler) Reject(c *gin.Context) {
	h.transition(c, h.matchSvc.Reject)
}

type transitionFunc func(ctx context.Context, caller service.Caller, id int64) (*dto.MatchStatusResponse, error)

func (h *MatchRequestHandler) transition(c *gin.Context, fn transitionFunc) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), caller, id)
	if err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.OK(c, result)
}

// Cancel 学员撤回请求
// DELETE /api/match-requests/:id
func (h *MatchRequestHandler) Cancel(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.matchSvc.Cancel(c.Request.Context(), caller, id); err != nil {
		h.handleMatchError(c, err)
		return
	}

	response.Message(c, "Match request cancelled successfully")
}

func (h *MatchRequestHandler) handleMatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, response.CodeForbidden, "You do not have permission to perform this action")
	case errors.Is(err, service.ErrNotSelf):
		response.Forbidden(c, 14001, "You can only send requests for yourself")
	case errors.Is(err, service.ErrMessageRequired):
		response.BadRequest(c, 14002, "Mentor ID, mentee ID and message are required")
	case errors.Is(err, service.ErrMentorNotFound):
		response.NotFound(c, 14003, "Mentor not found")
	case errors.Is(err, service.ErrRequestAlreadyActive):
		response.BadRequest(c, 14004, "Request already exists or is already accepted")
	case errors.Is(err, service.ErrMenteeHasPending):
		response.BadRequest(c, 14005, "You already have a pending request")
	case errors.Is(err, service.ErrMatchRequestNotFound):
		response.NotFound(c, 14006, "Match request not found")
	case errors.Is(err, service.ErrMentorAlreadyMatched):
		response.BadRequest(c, 14007, "Mentor already has an accepted request")
	default:
		response.InternalError(c)
	}
}
