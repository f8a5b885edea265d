package shift

import "context"

type Repository interface {
	// Find returns ErrShiftNotFound when no shift has the id.
	Find(ctx context.Context, id string) (WorkShift, error)
	// Save inserts the shift when ID is empty, updates it otherwise.
	Save(ctx context.Context, shift WorkShift) (WorkShift, error)
	FindByGroupID(ctx context.Context, groupID string) ([]WorkShift, error)
	// FindOverlappingShifts returns active shifts of the group whose window
	// intersects [start, end], skipping excludeID.
	FindOverlappingShifts(ctx context.Context, groupID, start, end string, excludeID string) ([]WorkShift, error)
}
