package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"golang.org/x/sync/errgroup"
)

const absenceSweepParallel = 4

// AbsenceJobs closes out the previous work date: members of active groups
// with no record get an ABSENT record, or HOLIDAY on a holiday.
type AbsenceJobs struct {
	groupRepo  group.Repository
	shiftRepo  shift.Repository
	recordRepo attendance.RecordRepository
	holidays   holiday.Checker
	interval   time.Duration
	loc        *time.Location
	now        func() time.Time
}

func NewAbsenceJobs(
	groupRepo group.Repository,
	shiftRepo shift.Repository,
	recordRepo attendance.RecordRepository,
	holidays holiday.Checker,
	interval time.Duration,
	loc *time.Location,
) *AbsenceJobs {
	if holidays == nil {
		holidays = holiday.NoHolidays{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &AbsenceJobs{
		groupRepo:  groupRepo,
		shiftRepo:  shiftRepo,
		recordRepo: recordRepo,
		holidays:   holidays,
		interval:   interval,
		loc:        loc,
		now:        time.Now,
	}
}

func (j *AbsenceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", j.interval, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees is idempotent: members that already have a record for
// the date are skipped, so running it every interval is safe.
func (j *AbsenceJobs) MarkAbsentEmployees(ctx context.Context) error {
	nowLocal := j.now().In(j.loc)
	workDate := attendance.DateOf(nowLocal).AddDate(0, 0, -1)

	isHoliday, err := j.holidays.IsHoliday(ctx, workDate)
	if err != nil {
		return fmt.Errorf("failed to check holiday for %s: %w", workDate.Format(time.DateOnly), err)
	}
	status := attendance.StatusAbsent
	if isHoliday {
		status = attendance.StatusHoliday
	}

	groups, err := j.groupRepo.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active groups: %w", err)
	}

	var marked atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(absenceSweepParallel)
	for _, g := range groups {
		eg.Go(func() error {
			n, err := j.markGroup(egCtx, g, workDate, status, nowLocal)
			marked.Add(int64(n))
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if n := marked.Load(); n > 0 {
		slog.Info("Cron: Marked missing attendance", "date", workDate.Format(time.DateOnly), "status", status, "count", n)
	}
	return nil
}

func (j *AbsenceJobs) markGroup(ctx context.Context, g group.AttendanceGroup, workDate time.Time, status attendance.Status, nowLocal time.Time) (int, error) {
	works, err := g.Rules.WorksOn(workDate)
	if err != nil {
		slog.Warn("Cron: Invalid work_days rule, skipping group", "group_id", g.ID, "error", err)
		return 0, nil
	}
	if !works {
		return 0, nil
	}

	shifts, err := j.shiftRepo.FindByGroupID(ctx, g.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load shifts of group %s: %w", g.ID, err)
	}
	if len((group.ApplicableRules{Shifts: shifts}).ActiveShifts()) == 0 {
		return 0, nil
	}

	marked := 0
	for _, employeeID := range g.MemberIDs {
		existing, err := j.recordRepo.FindByEmployeeAndDate(ctx, employeeID, workDate)
		if err != nil {
			return marked, fmt.Errorf("failed to get record of employee %s: %w", employeeID, err)
		}
		if existing != nil {
			continue
		}

		record := attendance.NewRecord(employeeID, workDate, nowLocal).WithStatus(status, nowLocal)
		if _, err := j.recordRepo.Save(ctx, record); err != nil {
			return marked, fmt.Errorf("failed to mark employee %s: %w", employeeID, err)
		}
		marked++
	}
	return marked, nil
}
