package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mentor-match/internal/model"
	"mentor-match/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("failed to generate spreadsheet")

// ExportService 导出业务接口
//
// 设计说明：
//   - 只读，导出导师收到的全部匹配请求为 Excel (.xlsx)
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 无请求时仍返回只含表头的工作簿
type ExportService interface {
	// ExportIncoming 导出导师收到的请求，返回 buf（Excel 内容）, filename（建议文件名）, error
	ExportIncoming(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

const exportSheet = "Requests"

var exportHeaders = []string{"ID", "Mentee", "Message", "Status", "Created At"}

func (s *exportService) ExportIncoming(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	if caller.Role != model.RoleMentor {
		return nil, "", ErrForbidden
	}

	// 1. 查询请求（与收件箱同序：最新在前）
	mrs, err := s.repo.MatchRequest.ListByMentor(ctx, caller.ID)
	if err != nil {
		s.logger.Error("查询收到的请求失败", zap.Int64("mentor_id", caller.ID), zap.Error(err))
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(exportSheet)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(exportSheet, "A", "A", 8)
	f.SetColWidth(exportSheet, "B", "B", 24)
	f.SetColWidth(exportSheet, "C", "C", 48)
	f.SetColWidth(exportSheet, "D", "D", 12)
	f.SetColWidth(exportSheet, "E", "E", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	for i, h := range exportHeaders {
		f.SetCellValue(exportSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(exportSheet, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)

	// 数据行
	row := 2
	for _, mr := range mrs {
		menteeName := ""
		if mr.Mentee != nil {
			menteeName = mr.Mentee.Name
		}
		f.SetCellValue(exportSheet, cell("A", row), mr.ID)
		f.SetCellValue(exportSheet, cell("B", row), menteeName)
		f.SetCellValue(exportSheet, cell("C", row), mr.Message)
		f.SetCellValue(exportSheet, cell("D", row), string(mr.Status))
		f.SetCellValue(exportSheet, cell("E", row), mr.CreatedAt.UTC().Format(time.RFC3339))
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("match_requests_%d_%s.xlsx", caller.ID, s.now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
