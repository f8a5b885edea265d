package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in / check-out errors
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrMustCheckInFirst  = errors.New("must check in first")
	ErrDeviceNotAllowed  = errors.New("device is not allowed")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrInvalidCheckIn    = errors.New("invalid check-in")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")
)
