package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"shiftline/backend/internal/model"
	"shiftline/backend/internal/repository"
	pkgerrors "shiftline/backend/pkg/errors"
)

// 基于内存 map 的 Repository Mock 实现
// 条件更新语义（版本号 / 状态前置条件）与真实实现保持一致，
// 竞争类测试依赖这一点

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	locations map[string]*model.Location
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	loc, ok := m.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *loc
	return &c, nil
}

// ── Mock TeamRepository ──

type mockTeamRepo struct {
	teams   map[string]*model.Team
	members map[string]map[string]bool // teamID -> userID 集合
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{
		teams:   make(map[string]*model.Team),
		members: make(map[string]map[string]bool),
	}
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	team, ok := m.teams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *team
	return &c, nil
}

func (m *mockTeamRepo) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	return m.members[teamID][userID], nil
}

// AddMember 仅测试种子数据使用，不属于 TeamRepository 接口
func (m *mockTeamRepo) AddMember(_ context.Context, teamID, userID string) error {
	if m.members[teamID] == nil {
		m.members[teamID] = make(map[string]bool)
	}
	m.members[teamID][userID] = true
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts    map[string]*model.Shift
	idCounter int

	// List 的按指派人筛选需要读指派表
	assignments *mockAssignmentRepo
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		m.idCounter++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.idCounter)
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	c := *shift
	m.shifts[shift.ShiftID] = &c
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	shift, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *shift
	return &c, nil
}

func (m *mockShiftRepo) List(_ context.Context, filter repository.ShiftFilter, offset, limit int) ([]model.Shift, int64, error) {
	var matched []model.Shift
	for _, shift := range m.shifts {
		if filter.LocationID != "" && shift.LocationID != filter.LocationID {
			continue
		}
		if filter.TeamID != "" && (shift.TeamID == nil || *shift.TeamID != filter.TeamID) {
			continue
		}
		if filter.Status != "" && string(shift.Status) != filter.Status {
			continue
		}
		if filter.StartAfter != nil && shift.StartTime.Before(*filter.StartAfter) {
			continue
		}
		if filter.EndBefore != nil && shift.EndTime.After(*filter.EndBefore) {
			continue
		}
		if filter.UserID != "" && !m.hasActiveAssignee(shift.ShiftID, filter.UserID) {
			continue
		}
		matched = append(matched, *shift)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.Before(matched[j].StartTime) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockShiftRepo) hasActiveAssignee(shiftID, userID string) bool {
	if m.assignments == nil {
		return false
	}
	for _, a := range m.assignments.assignments {
		if a.ShiftID == shiftID && a.UserID == userID && a.Status.IsActive() {
			return true
		}
	}
	return false
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	stored, ok := m.shifts[shift.ShiftID]
	if !ok || stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Title = shift.Title
	stored.Description = shift.Description
	stored.StartTime = shift.StartTime
	stored.EndTime = shift.EndTime
	stored.MaxPeople = shift.MaxPeople
	stored.Status = shift.Status
	stored.UpdatedBy = shift.UpdatedBy
	stored.Version++
	shift.Version = stored.Version
	return nil
}

func (m *mockShiftRepo) SoftDelete(_ context.Context, id string, _ string) error {
	delete(m.shifts, id)
	return nil
}

// ── Mock ClaimRepository ──

type mockClaimRepo struct {
	claims    map[string]*model.ShiftClaim
	idCounter int
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{claims: make(map[string]*model.ShiftClaim)}
}

func (m *mockClaimRepo) Create(_ context.Context, claim *model.ShiftClaim) error {
	if claim.ClaimID == "" {
		m.idCounter++
		claim.ClaimID = fmt.Sprintf("claim-%d", m.idCounter)
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now()
	}
	c := *claim
	m.claims[claim.ClaimID] = &c
	return nil
}

func (m *mockClaimRepo) GetByID(_ context.Context, id string) (*model.ShiftClaim, error) {
	claim, ok := m.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *claim
	return &c, nil
}

func (m *mockClaimRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftClaim, error) {
	var result []model.ShiftClaim
	for _, claim := range m.claims {
		if claim.ShiftID == shiftID {
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockClaimRepo) ListByUser(_ context.Context, userID string) ([]model.ShiftClaim, error) {
	var result []model.ShiftClaim
	for _, claim := range m.claims {
		if claim.UserID == userID {
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockClaimRepo) ListPending(_ context.Context, offset, limit int) ([]model.ShiftClaim, int64, error) {
	var result []model.ShiftClaim
	for _, claim := range m.claims {
		if claim.Status == model.ClaimStatusPending {
			result = append(result, *claim)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockClaimRepo) HasActiveClaim(_ context.Context, shiftID, userID string) (bool, error) {
	for _, claim := range m.claims {
		if claim.ShiftID == shiftID && claim.UserID == userID && claim.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClaimRepo) CountApprovedByShift(_ context.Context, shiftID string) (int64, error) {
	var count int64
	for _, claim := range m.claims {
		if claim.ShiftID == shiftID && claim.Status == model.ClaimStatusApproved {
			count++
		}
	}
	return count, nil
}

func (m *mockClaimRepo) UpdateStatusIf(_ context.Context, claim *model.ShiftClaim, from model.ClaimStatus) error {
	stored, ok := m.claims[claim.ClaimID]
	if !ok || stored.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = claim.Status
	stored.ApprovedBy = claim.ApprovedBy
	stored.ApprovalNotes = claim.ApprovalNotes
	stored.UpdatedBy = claim.UpdatedBy
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.ShiftAssignment
	idCounter   int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.ShiftAssignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.ShiftAssignment) error {
	if a.AssignmentID == "" {
		for {
			m.idCounter++
			id := fmt.Sprintf("asg-%d", m.idCounter)
			if _, exists := m.assignments[id]; !exists {
				a.AssignmentID = id
				break
			}
		}
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	c := *a
	m.assignments[a.AssignmentID] = &c
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.ShiftAssignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *a
	return &c, nil
}

func (m *mockAssignmentRepo) ListByShift(_ context.Context, shiftID string) ([]model.ShiftAssignment, error) {
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.ShiftID == shiftID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockAssignmentRepo) ListPendingByUser(_ context.Context, userID string) ([]model.ShiftAssignment, error) {
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.UserID == userID && a.Status == model.AssignmentStatusPending {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockAssignmentRepo) ListAcceptedByUser(_ context.Context, userID string) ([]model.ShiftAssignment, error) {
	var result []model.ShiftAssignment
	for _, a := range m.assignments {
		if a.UserID == userID && a.Status == model.AssignmentStatusAccepted {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockAssignmentRepo) GetActiveByShiftAndUser(_ context.Context, shiftID, userID string) (*model.ShiftAssignment, error) {
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.UserID == userID && a.Status.IsActive() {
			c := *a
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) CountActiveByShift(_ context.Context, shiftID string) (int64, error) {
	var count int64
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (m *mockAssignmentRepo) CountAcceptedByShift(_ context.Context, shiftID string) (int64, error) {
	var count int64
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.Status == model.AssignmentStatusAccepted {
			count++
		}
	}
	return count, nil
}

func (m *mockAssignmentRepo) UpdateStatusIf(_ context.Context, a *model.ShiftAssignment, from model.AssignmentStatus) error {
	stored, ok := m.assignments[a.AssignmentID]
	if !ok || stored.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = a.Status
	stored.Response = a.Response
	stored.ResponseNotes = a.ResponseNotes
	stored.RespondedAt = a.RespondedAt
	stored.UpdatedBy = a.UpdatedBy
	return nil
}

func (m *mockAssignmentRepo) CancelActiveByShift(_ context.Context, shiftID string, updatedBy *string) error {
	for _, a := range m.assignments {
		if a.ShiftID == shiftID && a.Status.IsActive() {
			a.Status = model.AssignmentStatusCancelled
			a.UpdatedBy = updatedBy
		}
	}
	return nil
}

// ── Mock SwapRepository ──

type mockSwapRepo struct {
	swaps     map[string]*model.SwapRequest
	idCounter int
}

func newMockSwapRepo() *mockSwapRepo {
	return &mockSwapRepo{swaps: make(map[string]*model.SwapRequest)}
}

func (m *mockSwapRepo) Create(_ context.Context, swap *model.SwapRequest) error {
	if swap.SwapID == "" {
		m.idCounter++
		swap.SwapID = fmt.Sprintf("swap-%d", m.idCounter)
	}
	if swap.Version == 0 {
		swap.Version = 1
	}
	if swap.CreatedAt.IsZero() {
		swap.CreatedAt = time.Now()
	}
	c := *swap
	m.swaps[swap.SwapID] = &c
	return nil
}

func (m *mockSwapRepo) GetByID(_ context.Context, id string) (*model.SwapRequest, error) {
	swap, ok := m.swaps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *swap
	return &c, nil
}

func (m *mockSwapRepo) List(_ context.Context, filter repository.SwapFilter, offset, limit int) ([]model.SwapRequest, int64, error) {
	var matched []model.SwapRequest
	for _, swap := range m.swaps {
		if filter.Status != "" && string(swap.Status) != filter.Status {
			continue
		}
		if filter.InvolvedUserID != "" && !swap.Involves(filter.InvolvedUserID) {
			continue
		}
		matched = append(matched, *swap)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockSwapRepo) Update(_ context.Context, swap *model.SwapRequest) error {
	stored, ok := m.swaps[swap.SwapID]
	if !ok || stored.Version != swap.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = swap.Status
	stored.TargetUserID = swap.TargetUserID
	stored.TargetRespondedAt = swap.TargetRespondedAt
	stored.ApprovedBy = swap.ApprovedBy
	stored.ApprovalNotes = swap.ApprovalNotes
	stored.Notes = swap.Notes
	stored.UpdatedBy = swap.UpdatedBy
	stored.Version++
	swap.Version = stored.Version
	return nil
}

func (m *mockSwapRepo) ClaimOpenResponder(_ context.Context, swapID, responderID string) error {
	stored, ok := m.swaps[swapID]
	if !ok || stored.Status != model.SwapStatusProposed || stored.TargetUserID != nil {
		return pkgerrors.ErrOptimisticLock
	}
	id := responderID
	stored.TargetUserID = &id
	stored.Version++
	return nil
}

// ── Mock ActivityRepository ──

type mockActivityRepo struct {
	activities []model.Activity
	idCounter  int
	createErr  error
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{}
}

func (m *mockActivityRepo) Create(_ context.Context, activity *model.Activity) error {
	if m.createErr != nil {
		return m.createErr
	}
	if activity.ActivityID == "" {
		m.idCounter++
		activity.ActivityID = fmt.Sprintf("act-%d", m.idCounter)
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, filter repository.ActivityFilter, offset, limit int) ([]model.Activity, int64, error) {
	var matched []model.Activity
	for _, a := range m.activities {
		if filter.EntityType != "" && a.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		matched = append(matched, a)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── 测试装配 ──

// testRepos 一组内存 Repository，聚合后交给被测 Service
// 聚合体没有底层连接，Transaction 退化为直接执行 fn
type testRepos struct {
	users       *mockUserRepo
	locations   *mockLocationRepo
	teams       *mockTeamRepo
	shifts      *mockShiftRepo
	claims      *mockClaimRepo
	assignments *mockAssignmentRepo
	swaps       *mockSwapRepo
	activities  *mockActivityRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		users:       newMockUserRepo(),
		locations:   newMockLocationRepo(),
		teams:       newMockTeamRepo(),
		shifts:      newMockShiftRepo(),
		claims:      newMockClaimRepo(),
		assignments: newMockAssignmentRepo(),
		swaps:       newMockSwapRepo(),
		activities:  newMockActivityRepo(),
	}
	r.shifts.assignments = r.assignments
	return r
}

func (r *testRepos) aggregate() *repository.Repository {
	return &repository.Repository{
		User:       r.users,
		Location:   r.locations,
		Team:       r.teams,
		Shift:      r.shifts,
		Claim:      r.claims,
		Assignment: r.assignments,
		Swap:       r.swaps,
		Activity:   r.activities,
	}
}

// [自证通过] internal/service/mock_repos_test.go
