package group

import "errors"

var (
	ErrAttendanceGroupNotFound = errors.New("attendance group not found")
	ErrNoAttendanceGroup       = errors.New("employee has no attendance group")
	ErrAttendanceGroupInactive = errors.New("attendance group is inactive")
)
