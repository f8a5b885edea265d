package attendance

import (
	"context"
	"time"
)

// CheckInService drives the per-day NoRecord -> CheckedIn -> CheckedOut
// workflow.
type CheckInService interface {
	CheckIn(ctx context.Context, req CheckRequest) (Record, error)
	CheckOut(ctx context.Context, req CheckRequest) (Record, error)
	CanCheckIn(ctx context.Context, employeeID string) bool
	CanCheckOut(ctx context.Context, employeeID string) bool
	TodayRecord(ctx context.Context, employeeID string) (Record, error)
}

// StatusCalculator derives the status of a check event. It never fails:
// missing rules yield StatusNormal.
type StatusCalculator interface {
	CheckInStatus(ctx context.Context, employeeID string, checkTime time.Time) Status
	CheckOutStatus(ctx context.Context, record Record, checkTime time.Time) Status
}
