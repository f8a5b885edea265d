package group

import (
	"context"
	"time"
)

type Repository interface {
	// Find returns ErrAttendanceGroupNotFound when no group has the id.
	Find(ctx context.Context, id string) (AttendanceGroup, error)
	// Save inserts the group when ID is empty, updates it otherwise. Updates
	// never touch the member list; use AddMember and RemoveMember for that.
	Save(ctx context.Context, group AttendanceGroup) (AttendanceGroup, error)
	// AddMember appends employeeID to the group in a single atomic step and
	// reports whether the list changed.
	AddMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error)
	// RemoveMember drops employeeID from the group in a single atomic step and
	// reports whether the list changed.
	RemoveMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error)
	// FindByMember returns the active group containing employeeID, or nil.
	FindByMember(ctx context.Context, employeeID string) (*AttendanceGroup, error)
	FindActive(ctx context.Context) ([]AttendanceGroup, error)
}
