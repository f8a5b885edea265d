package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"golang.org/x/sync/singleflight"
)

type holidayRepository struct {
	db *database.DB
	sf *singleflight.Group
}

// IsHoliday implements holiday.Checker. Concurrent lookups of the same date
// outside a transaction share one query.
func (r *holidayRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	day := date.Format(time.DateOnly)
	if _, inTx := database.TxFromContext(ctx); inTx {
		return r.isHoliday(ctx, day)
	}

	v, err, _ := r.sf.Do(day, func() (interface{}, error) {
		return r.isHoliday(ctx, day)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *holidayRepository) isHoliday(ctx context.Context, day string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM holidays WHERE date = $1::date)`
	if err := q.QueryRow(ctx, query, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return exists, nil
}

func NewHolidayRepository(db *database.DB) holiday.Checker {
	return &holidayRepository{db: db, sf: &singleflight.Group{}}
}
