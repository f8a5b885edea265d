package rule

import (
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
)

// CurrentShift returns the first active shift whose window contains the
// time of day of checkTime, or nil. Shifts are tried in the given order.
func CurrentShift(shifts []shift.WorkShift, checkTime time.Time) *shift.WorkShift {
	clock := shift.ClockOf(checkTime)
	for i := range shifts {
		if !shifts[i].IsActive {
			continue
		}
		if shifts[i].Contains(clock) {
			matched := shifts[i]
			return &matched
		}
	}
	return nil
}

// EffectiveFlex is the flexible window for s: the shift's own setting,
// then the group's flexible_minutes rule, then zero.
func EffectiveFlex(rules group.Rules, s shift.WorkShift) int {
	if s.FlexibleMinutes != nil {
		return *s.FlexibleMinutes
	}
	flex, err := rules.FlexibleMinutes()
	if err != nil || flex == nil {
		return 0
	}
	return *flex
}
