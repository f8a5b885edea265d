package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type shiftRepository struct {
	db *database.DB
}

const shiftColumns = `id, group_id, name, start_time, end_time, flexible_minutes, break_times, cross_day, is_active, created_at, updated_at`

func scanShift(row pgx.Row) (shift.WorkShift, error) {
	var s shift.WorkShift
	err := row.Scan(
		&s.ID, &s.GroupID, &s.Name, &s.StartTime, &s.EndTime, &s.FlexibleMinutes,
		&s.BreakTimes, &s.CrossDay, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func collectShifts(rows pgx.Rows) ([]shift.WorkShift, error) {
	defer rows.Close()

	shifts := []shift.WorkShift{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work shifts: %w", err)
	}
	return shifts, nil
}

// Find implements shift.Repository.
func (r *shiftRepository) Find(ctx context.Context, id string) (shift.WorkShift, error) {
	if _, err := uuid.Parse(id); err != nil {
		return shift.WorkShift{}, shift.ErrShiftNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM work_shifts WHERE id = $1`

	s, err := scanShift(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.WorkShift{}, shift.ErrShiftNotFound
		}
		return shift.WorkShift{}, fmt.Errorf("failed to get work shift by id: %w", err)
	}
	return s, nil
}

// Save implements shift.Repository.
func (r *shiftRepository) Save(ctx context.Context, s shift.WorkShift) (shift.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	breaks := s.BreakTimes
	if breaks == nil {
		breaks = []shift.BreakTime{}
	}

	if s.ID == "" {
		query := `
			INSERT INTO work_shifts (
				group_id, name, start_time, end_time, flexible_minutes,
				break_times, cross_day, is_active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		err := q.QueryRow(ctx, query,
			s.GroupID, s.Name, s.StartTime, s.EndTime, s.FlexibleMinutes,
			breaks, s.CrossDay, s.IsActive, s.CreatedAt, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			return shift.WorkShift{}, fmt.Errorf("failed to create work shift: %w", err)
		}
		return s, nil
	}

	query := `
		UPDATE work_shifts
		SET name = $2, start_time = $3, end_time = $4, flexible_minutes = $5,
			break_times = $6, cross_day = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	commandTag, err := q.Exec(ctx, query,
		s.ID, s.Name, s.StartTime, s.EndTime, s.FlexibleMinutes,
		breaks, s.CrossDay, s.IsActive, s.UpdatedAt,
	)
	if err != nil {
		return shift.WorkShift{}, fmt.Errorf("failed to update work shift: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return shift.WorkShift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

// FindByGroupID implements shift.Repository. Shifts come back in creation
// order, which is the order shift matching tries them in.
func (r *shiftRepository) FindByGroupID(ctx context.Context, groupID string) ([]shift.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM work_shifts WHERE group_id = $1 ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work shifts: %w", err)
	}
	return collectShifts(rows)
}

// FindOverlappingShifts implements shift.Repository.
func (r *shiftRepository) FindOverlappingShifts(ctx context.Context, groupID, start, end string, excludeID string) ([]shift.WorkShift, error) {
	q := GetQuerier(ctx, r.db)

	// Wrap-around windows make the overlap test awkward in SQL; candidates are
	// filtered below.
	query := `
		SELECT ` + shiftColumns + `
		FROM work_shifts
		WHERE group_id = $1
		  AND is_active = TRUE
		  AND ($2 = '' OR id::text <> $2)
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, groupID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate shifts: %w", err)
	}
	candidates, err := collectShifts(rows)
	if err != nil {
		return nil, err
	}

	overlapping := []shift.WorkShift{}
	for _, c := range candidates {
		overlap, err := shift.WindowsOverlap(start, end, end < start, c.StartTime, c.EndTime, c.CrossDay)
		if err != nil {
			return nil, err
		}
		if overlap {
			overlapping = append(overlapping, c)
		}
	}
	return overlapping, nil
}

func NewShiftRepository(db *database.DB) shift.Repository {
	return &shiftRepository{db: db}
}
