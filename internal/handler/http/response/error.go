package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		BadRequest(w, "Invalid request format", nil)
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in today")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Already checked out today")
	case errors.Is(err, attendance.ErrMustCheckInFirst):
		Conflict(w, "Must check in first")
	case errors.Is(err, attendance.ErrInvalidLocation):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrDeviceNotAllowed):
		Forbidden(w, "Device is not allowed")
	case errors.Is(err, attendance.ErrInvalidCheckIn):
		UnprocessableEntity(w, err.Error())

	// Group domain errors
	case errors.Is(err, group.ErrAttendanceGroupNotFound):
		NotFound(w, "Attendance group not found")
	case errors.Is(err, group.ErrNoAttendanceGroup):
		NotFound(w, "Employee has no attendance group")
	case errors.Is(err, group.ErrAttendanceGroupInactive):
		Conflict(w, "Attendance group is inactive")

	// Shift domain errors
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Work shift not found")
	case errors.Is(err, shift.ErrShiftOverlap):
		Conflict(w, err.Error())
	case errors.Is(err, shift.ErrInvalidTimeFormat):
		BadRequest(w, err.Error(), nil)

	// Authorization errors
	case errors.Is(err, jwt.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
