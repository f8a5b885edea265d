package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/service/rule"
)

type statusCalculatorImpl struct {
	ruleService       group.RuleService
	overtimeThreshold int
	loc               *time.Location
}

// CheckInStatus implements attendance.StatusCalculator.
func (c *statusCalculatorImpl) CheckInStatus(ctx context.Context, employeeID string, checkTime time.Time) attendance.Status {
	rules, err := c.ruleService.ApplicableRules(ctx, employeeID, checkTime)
	if err != nil {
		slog.Warn("Rules unavailable, check-in status defaults to normal", "employee_id", employeeID, "error", err)
		return attendance.StatusNormal
	}

	minute := shift.MinuteOfDay(checkTime.In(c.loc))
	for _, s := range rules.ActiveShifts() {
		start, err := s.StartMinute()
		if err != nil {
			slog.Warn("Malformed shift, check-in status defaults to normal", "shift_id", s.ID, "error", err)
			return attendance.StatusNormal
		}

		if rules.Type == group.GroupTypeFlexible {
			if flex := rule.EffectiveFlex(rules.Rules, s); flex > 0 && shift.WithinFlexWindow(minute, start, flex) {
				continue
			}
		}
		// First non-normal shift decides.
		if shift.MinutesAfter(minute, start) > 0 {
			return attendance.StatusLate
		}
	}
	return attendance.StatusNormal
}

// CheckOutStatus implements attendance.StatusCalculator.
func (c *statusCalculatorImpl) CheckOutStatus(ctx context.Context, record attendance.Record, checkTime time.Time) attendance.Status {
	if record.Status == attendance.StatusLate {
		return attendance.StatusLate
	}

	rules, err := c.ruleService.ApplicableRules(ctx, record.EmployeeID, checkTime)
	if err != nil {
		slog.Warn("Rules unavailable, check-out status defaults to normal", "employee_id", record.EmployeeID, "error", err)
		return attendance.StatusNormal
	}

	minute := shift.MinuteOfDay(checkTime.In(c.loc))
	for _, s := range rules.ActiveShifts() {
		end, err := s.EndMinute()
		if err != nil {
			slog.Warn("Malformed shift, check-out status defaults to normal", "shift_id", s.ID, "error", err)
			return attendance.StatusNormal
		}

		if shift.MinutesAfter(end, minute) > 0 {
			return attendance.StatusEarly
		}
		if shift.MinutesAfter(minute, end) > c.overtimeThreshold {
			return attendance.StatusOvertime
		}
	}
	return attendance.StatusNormal
}

func NewStatusCalculator(ruleService group.RuleService, overtimeThresholdMinutes int, loc *time.Location) attendance.StatusCalculator {
	if loc == nil {
		loc = time.Local
	}
	return &statusCalculatorImpl{
		ruleService:       ruleService,
		overtimeThreshold: overtimeThresholdMinutes,
		loc:               loc,
	}
}
