package attendance

import (
	"context"
	"time"
)

// RecordRepository persists attendance records. (employee_id, work_date) is
// unique at the storage layer.
type RecordRepository interface {
	// FindByEmployeeAndDate returns nil when the employee has no record
	// for the date.
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// FindRecentRecord returns the latest record with a check-in at or after
	// since, or nil.
	FindRecentRecord(ctx context.Context, employeeID string, since time.Time) (*Record, error)

	// Save inserts the record when ID is empty, updates it otherwise. An insert
	// for an employee and date that already has a record returns that record
	// unchanged.
	Save(ctx context.Context, record Record) (Record, error)
}
