package rule

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/lock"
	"golang.org/x/sync/errgroup"
)

const (
	memberLockPrefix = "attendance_group_member:"

	// Hours before shift start (check-in) or after shift end (check-out)
	// that only produce a warning.
	earlyCheckInHours  = 2
	lateCheckOutHours  = 2
	statisticsParallel = 8
)

const (
	WarningNoShifts       = "group has no shift configuration"
	WarningHoliday        = "today is a holiday"
	WarningEarlyCheckIn   = "check-in too early"
	WarningLateCheckOut   = "possible overtime"
	ViolationOutsideShift = "current time is outside any shift window"
	ViolationNoLocation   = "location is required for this attendance group"
)

type ruleServiceImpl struct {
	tx        database.Transactor
	groupRepo group.Repository
	shiftRepo shift.Repository
	holidays  holiday.Checker
	locker    lock.Locker
	loc       *time.Location
	now       func() time.Time
}

// ApplicableRules implements group.RuleService.
func (s *ruleServiceImpl) ApplicableRules(ctx context.Context, employeeID string, date time.Time) (group.ApplicableRules, error) {
	g, err := s.groupRepo.FindByMember(ctx, employeeID)
	if err != nil {
		return group.ApplicableRules{}, fmt.Errorf("failed to find group of employee %s: %w", employeeID, err)
	}
	if g == nil {
		return group.ApplicableRules{}, group.ErrNoAttendanceGroup
	}

	shifts, err := s.shiftRepo.FindByGroupID(ctx, g.ID)
	if err != nil {
		return group.ApplicableRules{}, fmt.Errorf("failed to load shifts of group %s: %w", g.ID, err)
	}

	return group.ApplicableRules{
		Group:  *g,
		Shifts: shifts,
		Rules:  g.Rules,
		Type:   g.Type,
	}, nil
}

// ValidateAttendance implements group.RuleService.
//
// The flexible window is only enforced on check-in; a check-out outside it is
// never a violation. Violations on a check-out are informational: the
// check-in service records the check-out anyway and only check-in violations
// reject the request with ErrInvalidCheckIn.
func (s *ruleServiceImpl) ValidateAttendance(ctx context.Context, req group.ValidateAttendanceRequest) (group.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return group.ValidationResult{}, err
	}

	rules, err := s.ApplicableRules(ctx, req.EmployeeID, req.CheckTime)
	if err != nil {
		return group.ValidationResult{}, err
	}

	result := group.ValidationResult{Violations: []string{}, Warnings: []string{}}
	checkTime := req.CheckTime.In(s.loc)

	isHoliday, err := s.holidays.IsHoliday(ctx, attendance.DateOf(checkTime))
	if err != nil {
		slog.Warn("Holiday lookup failed", "employee_id", req.EmployeeID, "error", err)
	} else if isHoliday {
		result.Warnings = append(result.Warnings, WarningHoliday)
	}

	if len(rules.Shifts) == 0 {
		result.Warnings = append(result.Warnings, WarningNoShifts)
		return result, nil
	}

	current := CurrentShift(rules.Shifts, checkTime)
	if current == nil {
		result.Violations = append(result.Violations, ViolationOutsideShift)
		return result, nil
	}

	start, err := current.StartMinute()
	if err != nil {
		return group.ValidationResult{}, fmt.Errorf("%w: shift %s: %v", attendance.ErrInvalidCheckIn, current.ID, err)
	}
	end, err := current.EndMinute()
	if err != nil {
		return group.ValidationResult{}, fmt.Errorf("%w: shift %s: %v", attendance.ErrInvalidCheckIn, current.ID, err)
	}
	minute := shift.MinuteOfDay(checkTime)

	if req.Kind == group.CheckKindIn && rules.Type == group.GroupTypeFlexible {
		if flex := EffectiveFlex(rules.Rules, *current); flex > 0 && !shift.WithinFlexWindow(minute, start, flex) {
			result.Violations = append(result.Violations, fmt.Sprintf(
				"check-in at %s is outside the flexible window of %s (%s ± %d minutes)",
				shift.ClockOf(checkTime), current.Name, current.StartTime, flex,
			))
		}
	}

	if rules.Rules.LocationRequired() && req.Location == nil {
		result.Violations = append(result.Violations, ViolationNoLocation)
	}
	if req.Location != nil {
		fence, err := rules.Rules.Geofence()
		if err != nil {
			return group.ValidationResult{}, fmt.Errorf("%w: group %s: %v", attendance.ErrInvalidCheckIn, rules.Group.ID, err)
		}
		if fence != nil && fence.RadiusMeters > 0 {
			if distance := req.Location.DistanceTo(fence.Center); distance > fence.RadiusMeters {
				result.Violations = append(result.Violations, fmt.Sprintf(
					"location is %.0f meters from the office, allowed radius is %.0f meters",
					distance, fence.RadiusMeters,
				))
			}
		}
	}

	checkHour := checkTime.Hour()
	switch req.Kind {
	case group.CheckKindIn:
		if checkHour < start/60-earlyCheckInHours {
			result.Warnings = append(result.Warnings, WarningEarlyCheckIn)
		}
	case group.CheckKindOut:
		if checkHour > end/60+lateCheckOutHours {
			result.Warnings = append(result.Warnings, WarningLateCheckOut)
		}
	}

	return result, nil
}

// AssignEmployeeToGroup implements group.RuleService.
func (s *ruleServiceImpl) AssignEmployeeToGroup(ctx context.Context, employeeID, groupID string) (bool, error) {
	req := group.AssignMemberRequest{EmployeeID: employeeID, GroupID: groupID}
	if err := req.Validate(); err != nil {
		return false, err
	}

	return lock.Run(ctx, s.locker, memberLockPrefix+employeeID, func(ctx context.Context) (bool, error) {
		err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			target, err := s.groupRepo.Find(ctx, groupID)
			if err != nil {
				return err
			}
			if !target.IsActive {
				return group.ErrAttendanceGroupInactive
			}

			now := s.now()
			current, err := s.groupRepo.FindByMember(ctx, employeeID)
			if err != nil {
				return fmt.Errorf("failed to find group of employee %s: %w", employeeID, err)
			}
			if current != nil && current.ID != target.ID {
				if _, err := s.groupRepo.RemoveMember(ctx, current.ID, employeeID, now); err != nil {
					return fmt.Errorf("failed to remove employee %s from group %s: %w", employeeID, current.ID, err)
				}
				slog.Info("Employee moved between attendance groups", "employee_id", employeeID, "from", current.ID, "to", target.ID)
			}

			if _, err := s.groupRepo.AddMember(ctx, target.ID, employeeID, now); err != nil {
				return fmt.Errorf("failed to add employee %s to group %s: %w", employeeID, target.ID, err)
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

// RemoveEmployeeFromGroup implements group.RuleService. It shares the
// member lock with AssignEmployeeToGroup so a removal cannot interleave with
// a move of the same employee.
func (s *ruleServiceImpl) RemoveEmployeeFromGroup(ctx context.Context, employeeID, groupID string) (bool, error) {
	req := group.AssignMemberRequest{EmployeeID: employeeID, GroupID: groupID}
	if err := req.Validate(); err != nil {
		return false, err
	}

	return lock.Run(ctx, s.locker, memberLockPrefix+employeeID, func(ctx context.Context) (bool, error) {
		removed, err := s.groupRepo.RemoveMember(ctx, groupID, employeeID, s.now())
		if err != nil {
			return false, fmt.Errorf("failed to remove employee %s from group %s: %w", employeeID, groupID, err)
		}
		return removed, nil
	})
}

// EmployeeGroup implements group.RuleService.
func (s *ruleServiceImpl) EmployeeGroup(ctx context.Context, employeeID string) (*group.AttendanceGroup, error) {
	return s.groupRepo.FindByMember(ctx, employeeID)
}

// GroupStatistics implements group.RuleService.
func (s *ruleServiceImpl) GroupStatistics(ctx context.Context) (group.GroupStatistics, error) {
	groups, err := s.groupRepo.FindActive(ctx)
	if err != nil {
		return group.GroupStatistics{}, fmt.Errorf("failed to list active groups: %w", err)
	}

	stats := group.GroupStatistics{
		TotalGroups:   len(groups),
		ByType:        make(map[group.GroupType]int, len(group.GroupTypeValues)),
		ByMemberRange: map[string]int{},
	}
	for _, t := range group.GroupTypeValues {
		stats.ByType[group.GroupType(t)] = 0
	}
	for _, r := range []string{group.MemberRangeEmpty, group.MemberRangeSmall, group.MemberRangeMedium, group.MemberRangeLarge, group.MemberRangeHuge} {
		stats.ByMemberRange[r] = 0
	}

	shiftCounts := make([]int, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(statisticsParallel)
	for i, g := range groups {
		stats.ByType[g.Type]++
		stats.ByMemberRange[group.MemberRange(g.MemberCount())]++
		stats.TotalMembers += g.MemberCount()

		eg.Go(func() error {
			shifts, err := s.shiftRepo.FindByGroupID(egCtx, g.ID)
			if err != nil {
				return fmt.Errorf("failed to load shifts of group %s: %w", g.ID, err)
			}
			for _, sh := range shifts {
				if sh.IsActive {
					shiftCounts[i]++
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return group.GroupStatistics{}, err
	}
	for _, n := range shiftCounts {
		stats.TotalShifts += n
	}

	return stats, nil
}

// CreateGroup implements group.RuleService.
func (s *ruleServiceImpl) CreateGroup(ctx context.Context, req group.CreateGroupRequest) (group.AttendanceGroup, error) {
	if err := req.Validate(); err != nil {
		return group.AttendanceGroup{}, err
	}

	now := s.now()
	rules := req.Rules.Clone()
	if rules == nil {
		rules = group.Rules{}
	}
	created, err := s.groupRepo.Save(ctx, group.AttendanceGroup{
		Name:      req.Name,
		Type:      req.Type,
		Rules:     rules,
		MemberIDs: []string{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return group.AttendanceGroup{}, fmt.Errorf("failed to create attendance group: %w", err)
	}
	return created, nil
}

// UpdateGroup implements group.RuleService.
func (s *ruleServiceImpl) UpdateGroup(ctx context.Context, req group.UpdateGroupRequest) (group.AttendanceGroup, error) {
	if err := req.Validate(); err != nil {
		return group.AttendanceGroup{}, err
	}

	g, err := s.groupRepo.Find(ctx, req.ID)
	if err != nil {
		return group.AttendanceGroup{}, err
	}

	now := s.now()
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Type != nil {
		g.Type = *req.Type
	}
	if req.Rules != nil {
		g = g.WithRules(req.Rules, now)
	}
	g.UpdatedAt = now

	updated, err := s.groupRepo.Save(ctx, g)
	if err != nil {
		return group.AttendanceGroup{}, fmt.Errorf("failed to update attendance group %s: %w", req.ID, err)
	}
	return updated, nil
}

// DeactivateGroup implements group.RuleService.
func (s *ruleServiceImpl) DeactivateGroup(ctx context.Context, id string) error {
	g, err := s.groupRepo.Find(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsActive {
		return nil
	}
	if _, err := s.groupRepo.Save(ctx, g.Deactivated(s.now())); err != nil {
		return fmt.Errorf("failed to deactivate attendance group %s: %w", id, err)
	}
	return nil
}

// GetGroup implements group.RuleService.
func (s *ruleServiceImpl) GetGroup(ctx context.Context, id string) (group.AttendanceGroup, error) {
	return s.groupRepo.Find(ctx, id)
}

// ListActiveGroups implements group.RuleService.
func (s *ruleServiceImpl) ListActiveGroups(ctx context.Context) ([]group.AttendanceGroup, error) {
	groups, err := s.groupRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active groups: %w", err)
	}
	return groups, nil
}

// CreateShift implements group.RuleService.
func (s *ruleServiceImpl) CreateShift(ctx context.Context, req group.CreateShiftRequest) (shift.WorkShift, error) {
	if err := req.Validate(); err != nil {
		return shift.WorkShift{}, err
	}

	if _, err := s.groupRepo.Find(ctx, req.GroupID); err != nil {
		return shift.WorkShift{}, err
	}

	now := s.now()
	ws := shift.WorkShift{
		GroupID:         req.GroupID,
		Name:            req.Name,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		FlexibleMinutes: req.FlexibleMinutes,
		BreakTimes:      slices.Clone(req.BreakTimes),
		CrossDay:        req.CrossDay,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.ensureNoOverlap(ctx, ws); err != nil {
		return shift.WorkShift{}, err
	}

	created, err := s.shiftRepo.Save(ctx, ws)
	if err != nil {
		return shift.WorkShift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return created, nil
}

// UpdateShift implements group.RuleService.
func (s *ruleServiceImpl) UpdateShift(ctx context.Context, req group.UpdateShiftRequest) (shift.WorkShift, error) {
	existing, err := s.shiftRepo.Find(ctx, req.ID)
	if err != nil {
		return shift.WorkShift{}, err
	}

	updated := req.Apply(existing)
	if err := group.ValidateShift(updated); err != nil {
		return shift.WorkShift{}, err
	}
	if updated.IsActive {
		if err := s.ensureNoOverlap(ctx, updated); err != nil {
			return shift.WorkShift{}, err
		}
	}

	saved, err := s.shiftRepo.Save(ctx, updated.Touched(s.now()))
	if err != nil {
		return shift.WorkShift{}, fmt.Errorf("failed to update shift %s: %w", req.ID, err)
	}
	return saved, nil
}

// DeactivateShift implements group.RuleService.
func (s *ruleServiceImpl) DeactivateShift(ctx context.Context, id string) error {
	existing, err := s.shiftRepo.Find(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsActive {
		return nil
	}
	if _, err := s.shiftRepo.Save(ctx, existing.Deactivated(s.now())); err != nil {
		return fmt.Errorf("failed to deactivate shift %s: %w", id, err)
	}
	return nil
}

// GetShift implements group.RuleService.
func (s *ruleServiceImpl) GetShift(ctx context.Context, id string) (shift.WorkShift, error) {
	return s.shiftRepo.Find(ctx, id)
}

// ListGroupShifts implements group.RuleService.
func (s *ruleServiceImpl) ListGroupShifts(ctx context.Context, groupID string) ([]shift.WorkShift, error) {
	if _, err := s.groupRepo.Find(ctx, groupID); err != nil {
		return nil, err
	}
	shifts, err := s.shiftRepo.FindByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts of group %s: %w", groupID, err)
	}
	return shifts, nil
}

func (s *ruleServiceImpl) ensureNoOverlap(ctx context.Context, ws shift.WorkShift) error {
	overlapping, err := s.shiftRepo.FindOverlappingShifts(ctx, ws.GroupID, ws.StartTime, ws.EndTime, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to check overlapping shifts: %w", err)
	}

	if len(overlapping) > 0 {
		other := overlapping[0]
		return fmt.Errorf("%w: %s (%s-%s)", shift.ErrShiftOverlap, other.Name, other.StartTime, other.EndTime)
	}
	return nil
}

func NewRuleService(
	tx database.Transactor,
	groupRepo group.Repository,
	shiftRepo shift.Repository,
	holidays holiday.Checker,
	locker lock.Locker,
	loc *time.Location,
) group.RuleService {
	return newRuleService(tx, groupRepo, shiftRepo, holidays, locker, loc)
}

func newRuleService(
	tx database.Transactor,
	groupRepo group.Repository,
	shiftRepo shift.Repository,
	holidays holiday.Checker,
	locker lock.Locker,
	loc *time.Location,
) *ruleServiceImpl {
	if holidays == nil {
		holidays = holiday.NoHolidays{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &ruleServiceImpl{
		tx:        tx,
		groupRepo: groupRepo,
		shiftRepo: shiftRepo,
		holidays:  holidays,
		locker:    locker,
		loc:       loc,
		now:       time.Now,
	}
}
