package shift

import "errors"

var (
	ErrShiftNotFound     = errors.New("work shift not found")
	ErrShiftOverlap      = errors.New("work shift overlaps another active shift in the group")
	ErrInvalidTimeFormat = errors.New("invalid time format, use HH:MM")
)
