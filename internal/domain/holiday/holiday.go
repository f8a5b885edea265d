// Package holiday exposes the one question the attendance engine asks
// about the company calendar.
package holiday

import (
	"context"
	"time"
)

type Holiday struct {
	Date time.Time
	Name string
}

// Checker reports whether a calendar date is a public or company holiday.
type Checker interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// NoHolidays is a Checker for deployments without a holiday calendar.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(context.Context, time.Time) (bool, error) {
	return false, nil
}
