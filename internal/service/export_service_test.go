package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mentor-match/internal/model"
	"mentor-match/internal/repository"
	"mentor-match/internal/testutil"
)

func TestExportService_ExportIncoming(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	svc := NewExportService(repository.NewRepository(db), zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	mentor := testutil.CreateUser(t, db, "Mentor One", model.RoleMentor)
	a := testutil.CreateUser(t, db, "Mentee A", model.RoleMentee)
	b := testutil.CreateUser(t, db, "Mentee B", model.RoleMentee)
	testutil.CreateMatchRequest(t, db, mentor.ID, a.ID, model.MatchStatusRejected)
	testutil.CreateMatchRequest(t, db, mentor.ID, b.ID, model.MatchStatusPending)

	buf, filename, err := svc.ExportIncoming(context.Background(), asCaller(mentor))
	require.NoError(t, err)
	assert.Equal(t, "match_requests_1_20260301.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	// 最新在前
	assert.Equal(t, []string{"Mentee B", "hello", "PENDING"}, rows[1][1:4])
	assert.Equal(t, "REJECTED", rows[2][3])

	// 导出只含导师可见的学员字段，不泄露邮箱
	assert.Equal(t, []string{"ID", "Mentee", "Message", "Status", "Created At"}, rows[0])
	for _, row := range rows {
		for _, v := range row {
			assert.NotContains(t, v, "@example.com")
		}
	}
}

func TestExportService_HeaderOnly(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	svc := NewExportService(repository.NewRepository(db), zap.NewNop())
	mentor := testutil.CreateUser(t, db, "Mentor One", model.RoleMentor)

	buf, _, err := svc.ExportIncoming(context.Background(), asCaller(mentor))
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, []string{exportSheet}, f.GetSheetList(), "默认 Sheet1 应被删除")
}

func TestExportService_Forbidden(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	svc := NewExportService(repository.NewRepository(db), zap.NewNop())

	_, _, err := svc.ExportIncoming(context.Background(), Caller{ID: 1, Role: model.RoleMentee})
	assert.ErrorIs(t, err, ErrForbidden)
}
