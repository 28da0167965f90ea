package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"mentor-match/internal/service"
	"mentor-match/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportIncoming 导出导师收到的请求
// GET /api/match-requests/incoming/export
func (h *ExportHandler) ExportIncoming(c *gin.Context) {
	caller, ok := mustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportIncoming(c.Request.Context(), caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, response.CodeForbidden, "Only mentors can export requests")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 15001, "Failed to generate spreadsheet")
	default:
		response.InternalError(c)
	}
}
