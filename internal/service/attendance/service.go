package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/config"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
)

type CheckInServiceImpl struct {
	tx          database.Transactor
	recordRepo  attendance.RecordRepository
	ruleService group.RuleService
	calculator  attendance.StatusCalculator
	loc         *time.Location
	minCheckGap time.Duration
	now         func() time.Time
}

// CheckIn implements attendance.CheckInService.
func (s *CheckInServiceImpl) CheckIn(ctx context.Context, req attendance.CheckRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	nowLocal := s.now().In(s.loc)
	dateLocal := attendance.DateOf(nowLocal)

	existing, err := s.recordRepo.FindByEmployeeAndDate(ctx, req.EmployeeID, dateLocal)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to get today's record: %w", err)
	}
	if existing != nil && existing.HasCheckedIn() {
		return attendance.Record{}, attendance.ErrAlreadyCheckedIn
	}

	coords, location, err := s.validateCapture(req.Data)
	if err != nil {
		return attendance.Record{}, err
	}

	if existing != nil && s.tooSoon(*existing, nowLocal) {
		return attendance.Record{}, fmt.Errorf("%w: check-in submitted too frequently", attendance.ErrInvalidCheckIn)
	}

	if err := s.validateRules(ctx, req.EmployeeID, nowLocal, group.CheckKindIn, coords, true); err != nil {
		return attendance.Record{}, err
	}

	var saved attendance.Record
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record := attendance.NewRecord(req.EmployeeID, dateLocal, nowLocal)
		if existing != nil {
			record = *existing
		} else if record, err = s.recordRepo.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		} else if record.HasCheckedIn() {
			// a concurrent check-in created the record first
			return attendance.ErrAlreadyCheckedIn
		}

		record = record.WithCheckIn(nowLocal, req.Type, location)
		status := s.calculator.CheckInStatus(ctx, req.EmployeeID, nowLocal)
		record = record.WithStatus(status, nowLocal)

		if saved, err = s.recordRepo.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to save check-in: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.Record{}, err
	}

	slog.Info("Employee checked in", "employee_id", req.EmployeeID, "record_id", saved.ID, "status", saved.Status, "type", req.Type)
	return saved, nil
}

// CheckOut implements attendance.CheckInService.
func (s *CheckInServiceImpl) CheckOut(ctx context.Context, req attendance.CheckRequest) (attendance.Record, error) {
	if err := req.Validate(); err != nil {
		return attendance.Record{}, err
	}

	nowLocal := s.now().In(s.loc)

	record, err := s.checkOutTarget(ctx, req.EmployeeID, nowLocal)
	if err != nil {
		return attendance.Record{}, err
	}
	if record == nil || !record.HasCheckedIn() {
		return attendance.Record{}, attendance.ErrMustCheckInFirst
	}
	if record.HasCheckedOut() {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}

	coords, location, err := s.validateCapture(req.Data)
	if err != nil {
		return attendance.Record{}, err
	}

	if !nowLocal.After(*record.CheckInTime) {
		return attendance.Record{}, fmt.Errorf("%w: check-out must be after check-in", attendance.ErrInvalidCheckIn)
	}

	// Leaving outside the shift window is how overtime and early departure
	// are recorded, so check-out violations do not block.
	if err := s.validateRules(ctx, req.EmployeeID, nowLocal, group.CheckKindOut, coords, false); err != nil {
		return attendance.Record{}, err
	}

	status := s.calculator.CheckOutStatus(ctx, *record, nowLocal)
	updated := record.WithCheckOut(nowLocal, location).WithStatus(status, nowLocal)

	saved, err := s.recordRepo.Save(ctx, updated)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to save check-out: %w", err)
	}

	slog.Info("Employee checked out", "employee_id", req.EmployeeID, "record_id", saved.ID, "status", saved.Status, "work_minutes", saved.WorkDurationMinutes())
	return saved, nil
}

// CanCheckIn implements attendance.CheckInService.
func (s *CheckInServiceImpl) CanCheckIn(ctx context.Context, employeeID string) bool {
	nowLocal := s.now().In(s.loc)
	record, err := s.recordRepo.FindByEmployeeAndDate(ctx, employeeID, attendance.DateOf(nowLocal))
	if err != nil {
		slog.Warn("Eligibility lookup failed", "employee_id", employeeID, "error", err)
		return false
	}
	return record == nil || !record.HasCheckedIn()
}

// CanCheckOut implements attendance.CheckInService.
func (s *CheckInServiceImpl) CanCheckOut(ctx context.Context, employeeID string) bool {
	record, err := s.checkOutTarget(ctx, employeeID, s.now().In(s.loc))
	if err != nil {
		slog.Warn("Eligibility lookup failed", "employee_id", employeeID, "error", err)
		return false
	}
	return record != nil && record.IsOpen()
}

// TodayRecord implements attendance.CheckInService.
func (s *CheckInServiceImpl) TodayRecord(ctx context.Context, employeeID string) (attendance.Record, error) {
	if validator.IsEmpty(employeeID) {
		return attendance.Record{}, validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}

	nowLocal := s.now().In(s.loc)
	record, err := s.checkOutTarget(ctx, employeeID, nowLocal)
	if err != nil {
		return attendance.Record{}, err
	}
	if record == nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return *record, nil
}

// checkOutTarget returns today's record, or yesterday's open record when the
// employee works a cross-day shift and has no check-in today.
func (s *CheckInServiceImpl) checkOutTarget(ctx context.Context, employeeID string, nowLocal time.Time) (*attendance.Record, error) {
	today := attendance.DateOf(nowLocal)
	record, err := s.recordRepo.FindByEmployeeAndDate(ctx, employeeID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get today's record: %w", err)
	}
	if record != nil && record.HasCheckedIn() {
		return record, nil
	}

	recent, err := s.recordRepo.FindRecentRecord(ctx, employeeID, nowLocal.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent record: %w", err)
	}
	if recent == nil || !recent.IsOpen() || recent.WorkDate.Format(time.DateOnly) != today.AddDate(0, 0, -1).Format(time.DateOnly) {
		return record, nil
	}
	if !s.worksCrossDay(ctx, employeeID, nowLocal) {
		return record, nil
	}
	return recent, nil
}

func (s *CheckInServiceImpl) worksCrossDay(ctx context.Context, employeeID string, nowLocal time.Time) bool {
	rules, err := s.ruleService.ApplicableRules(ctx, employeeID, nowLocal)
	if err != nil {
		return false
	}
	for _, sh := range rules.ActiveShifts() {
		if sh.CrossDay {
			return true
		}
	}
	return false
}

// tooSoon guards against duplicate submissions: a prior check-in, or a record
// another request created moments ago and has not stamped yet.
func (s *CheckInServiceImpl) tooSoon(existing attendance.Record, nowLocal time.Time) bool {
	last := existing.CheckInTime
	if last == nil && existing.Status == attendance.StatusNormal {
		last = &existing.CreatedAt
	}
	return last != nil && nowLocal.Sub(*last) < s.minCheckGap
}

// validateCapture checks the location first, then the device.
func (s *CheckInServiceImpl) validateCapture(data attendance.CheckData) (*utils.Coordinates, *string, error) {
	var (
		coords   *utils.Coordinates
		location *string
	)
	if data.Location != nil {
		c, err := data.Location.Coordinates()
		if err != nil {
			return nil, nil, err
		}
		formatted := attendance.FormatLocation(c, data.Location.Address)
		coords, location = &c, &formatted
	}

	if data.DeviceID != nil && !validator.IsValidDeviceID(*data.DeviceID) {
		return nil, nil, attendance.ErrDeviceNotAllowed
	}
	return coords, location, nil
}

func (s *CheckInServiceImpl) validateRules(ctx context.Context, employeeID string, at time.Time, kind group.CheckKind, coords *utils.Coordinates, blocking bool) error {
	result, err := s.ruleService.ValidateAttendance(ctx, group.ValidateAttendanceRequest{
		EmployeeID: employeeID,
		CheckTime:  at,
		Kind:       kind,
		Location:   coords,
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		slog.Info("Attendance warning", "employee_id", employeeID, "kind", kind, "warning", w)
	}
	if result.OK() {
		return nil
	}
	if !blocking {
		slog.Warn("Attendance rule violation", "employee_id", employeeID, "kind", kind, "violations", result.Violations)
		return nil
	}
	return fmt.Errorf("%w: %s", attendance.ErrInvalidCheckIn, result.Error())
}

func NewCheckInService(
	tx database.Transactor,
	recordRepo attendance.RecordRepository,
	ruleService group.RuleService,
	calculator attendance.StatusCalculator,
	cfg config.AttendanceConfig,
) *CheckInServiceImpl {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &CheckInServiceImpl{
		tx:          tx,
		recordRepo:  recordRepo,
		ruleService: ruleService,
		calculator:  calculator,
		loc:         loc,
		minCheckGap: cfg.MinCheckGap,
		now:         time.Now,
	}
}
