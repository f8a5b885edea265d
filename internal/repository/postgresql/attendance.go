package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type recordRepository struct {
	db *database.DB
}

const recordColumns = `
	id, employee_id, work_date, check_in_time, check_out_time, check_in_type,
	check_in_location, check_out_location, status, abnormal_reason, created_at, updated_at`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.CheckInTime, &rec.CheckOutTime, &rec.CheckInType,
		&rec.CheckInLocation, &rec.CheckOutLocation, &rec.Status, &rec.AbnormalReason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// FindByEmployeeAndDate implements attendance.RecordRepository.
func (r *recordRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1
		  AND work_date = $2::date
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date.Format(time.DateOnly)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record by employee and date: %w", err)
	}
	return &rec, nil
}

// FindRecentRecord implements attendance.RecordRepository.
func (r *recordRepository) FindRecentRecord(ctx context.Context, employeeID string, since time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1
		  AND check_in_time >= $2
		ORDER BY check_in_time DESC
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recent attendance record: %w", err)
	}
	return &rec, nil
}

// Save implements attendance.RecordRepository. An insert that loses the race
// for (employee_id, work_date) returns the stored record untouched.
func (r *recordRepository) Save(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	workDate := rec.WorkDate.Format(time.DateOnly)

	if rec.ID == "" {
		query := `
			INSERT INTO attendance_records (
				employee_id, work_date, check_in_time, check_out_time, check_in_type,
				check_in_location, check_out_location, status, abnormal_reason, created_at, updated_at
			) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (employee_id, work_date) DO NOTHING
			RETURNING id, created_at
		`
		err := q.QueryRow(ctx, query,
			rec.EmployeeID, workDate, rec.CheckInTime, rec.CheckOutTime, rec.CheckInType,
			rec.CheckInLocation, rec.CheckOutLocation, rec.Status, rec.AbnormalReason, rec.CreatedAt, rec.UpdatedAt,
		).Scan(&rec.ID, &rec.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			existing, err := r.FindByEmployeeAndDate(ctx, rec.EmployeeID, rec.WorkDate)
			if err != nil {
				return attendance.Record{}, err
			}
			if existing == nil {
				return attendance.Record{}, attendance.ErrRecordNotFound
			}
			return *existing, nil
		}
		if err != nil {
			return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
		}
		return rec, nil
	}

	query := `
		UPDATE attendance_records
		SET work_date = $2::date, check_in_time = $3, check_out_time = $4, check_in_type = $5,
			check_in_location = $6, check_out_location = $7, status = $8, abnormal_reason = $9, updated_at = $10
		WHERE id = $1
	`
	commandTag, err := q.Exec(ctx, query,
		rec.ID, workDate, rec.CheckInTime, rec.CheckOutTime, rec.CheckInType,
		rec.CheckInLocation, rec.CheckOutLocation, rec.Status, rec.AbnormalReason, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func NewRecordRepository(db *database.DB) attendance.RecordRepository {
	return &recordRepository{db: db}
}
