package model

import (
	"testing"
	"time"
)

func TestShiftStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to ShiftStatus
		want     bool
	}{
		{ShiftStatusOpen, ShiftStatusAssigned, true},
		{ShiftStatusOpen, ShiftStatusCancelled, true},
		{ShiftStatusOpen, ShiftStatusCompleted, false},
		{ShiftStatusOpen, ShiftStatusOpen, false},
		{ShiftStatusAssigned, ShiftStatusOpen, true},
		{ShiftStatusAssigned, ShiftStatusCompleted, true},
		{ShiftStatusAssigned, ShiftStatusCancelled, true},
		{ShiftStatusAssigned, ShiftStatusAssigned, false},
		{ShiftStatusCompleted, ShiftStatusOpen, false},
		{ShiftStatusCompleted, ShiftStatusCancelled, false},
		{ShiftStatusCancelled, ShiftStatusOpen, false},
		{ShiftStatusCancelled, ShiftStatusAssigned, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: 期望 %v，实际 %v", c.from, c.to, c.want, got)
		}
	}
}

func TestShiftStatus_IsTerminal(t *testing.T) {
	if ShiftStatusOpen.IsTerminal() || ShiftStatusAssigned.IsTerminal() {
		t.Error("open / assigned 不应为终态")
	}
	if !ShiftStatusCompleted.IsTerminal() || !ShiftStatusCancelled.IsTerminal() {
		t.Error("completed / cancelled 应为终态")
	}
}

func TestParseShiftStatus(t *testing.T) {
	if s, err := ParseShiftStatus("assigned"); err != nil || s != ShiftStatusAssigned {
		t.Errorf("解析 assigned 失败: %v", err)
	}
	if _, err := ParseShiftStatus("archived"); err == nil {
		t.Error("未知状态应返回错误")
	}
	if _, err := ParseShiftStatus(""); err == nil {
		t.Error("空状态应返回错误")
	}
}

func TestSwapStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to SwapStatus
		want     bool
	}{
		{SwapStatusProposed, SwapStatusTargetAccepted, true},
		{SwapStatusProposed, SwapStatusTargetDeclined, true},
		{SwapStatusProposed, SwapStatusCancelled, true},
		{SwapStatusProposed, SwapStatusApproved, false},
		{SwapStatusProposed, SwapStatusDenied, false},
		{SwapStatusTargetAccepted, SwapStatusApproved, true},
		{SwapStatusTargetAccepted, SwapStatusDenied, true},
		{SwapStatusTargetAccepted, SwapStatusCancelled, true},
		{SwapStatusTargetDeclined, SwapStatusApproved, false},
		{SwapStatusApproved, SwapStatusDenied, false},
		{SwapStatusDenied, SwapStatusProposed, false},
		{SwapStatusCancelled, SwapStatusTargetAccepted, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: 期望 %v，实际 %v", c.from, c.to, c.want, got)
		}
	}
}

func TestShiftAssignment_DeadlinePassed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	a := &ShiftAssignment{Status: AssignmentStatusPending, AcceptanceDeadline: &past}
	if !a.DeadlinePassed(now) {
		t.Error("截止时间已过的 pending 指派应判定为过期")
	}

	a = &ShiftAssignment{Status: AssignmentStatusPending, AcceptanceDeadline: &future}
	if a.DeadlinePassed(now) {
		t.Error("截止时间未到不应判定为过期")
	}

	a = &ShiftAssignment{Status: AssignmentStatusPending}
	if a.DeadlinePassed(now) {
		t.Error("未设截止时间的指派永不过期")
	}

	a = &ShiftAssignment{Status: AssignmentStatusAccepted, AcceptanceDeadline: &past}
	if a.DeadlinePassed(now) {
		t.Error("已接受的指派不参与过期判定")
	}
}
