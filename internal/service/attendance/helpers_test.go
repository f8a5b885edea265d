package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/config"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-rules/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-rules/internal/service/rule"
	"github.com/stretchr/testify/require"
)

// Monday 10 March 2025, UTC.
func at(clock string) time.Time {
	return dayAt(0, clock)
}

func dayAt(offset int, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2025-03-10 "+clock)
	if err != nil {
		panic(err)
	}
	return t.AddDate(0, 0, offset)
}

func intPtr(v int) *int { return &v }

type fixture struct {
	rules      group.RuleService
	records    attendance.RecordRepository
	calculator attendance.StatusCalculator
	svc        *CheckInServiceImpl
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.DefaultAttendanceConfig()
	cfg.Location = time.UTC

	f := &fixture{records: memory.NewRecordRepository(), clock: at("08:00")}
	f.rules = rule.NewRuleService(
		database.NoopTransactor{},
		memory.NewGroupRepository(),
		memory.NewShiftRepository(),
		memory.NewHolidayCalendar(),
		lock.NewMemoryLocker(),
		time.UTC,
	)
	f.calculator = NewStatusCalculator(f.rules, cfg.OvertimeThresholdMinutes, time.UTC)
	f.svc = NewCheckInService(database.NoopTransactor{}, f.records, f.rules, f.calculator, cfg)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) newGroup(t *testing.T, typ group.GroupType, shifts []group.CreateShiftRequest, employees ...string) group.AttendanceGroup {
	t.Helper()
	ctx := context.Background()

	g, err := f.rules.CreateGroup(ctx, group.CreateGroupRequest{Name: string(typ), Type: typ})
	require.NoError(t, err)
	for _, s := range shifts {
		s.GroupID = g.ID
		_, err := f.rules.CreateShift(ctx, s)
		require.NoError(t, err)
	}
	for _, id := range employees {
		_, err := f.rules.AssignEmployeeToGroup(ctx, id, g.ID)
		require.NoError(t, err)
	}
	return g
}

func officeShift(flex *int) group.CreateShiftRequest {
	return group.CreateShiftRequest{Name: "Office", StartTime: "09:00", EndTime: "18:00", FlexibleMinutes: flex}
}

func nightShift() group.CreateShiftRequest {
	return group.CreateShiftRequest{Name: "Night", StartTime: "22:00", EndTime: "06:00", CrossDay: true}
}
