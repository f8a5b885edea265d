package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", validator.ValidationErrors{{Field: "name", Message: "required"}}, http.StatusUnprocessableEntity, CodeValidation},
		{"malformed json", &json.SyntaxError{}, http.StatusBadRequest, CodeBadRequest},
		{"already checked in", fmt.Errorf("check in e-1: %w", attendance.ErrAlreadyCheckedIn), http.StatusConflict, CodeConflict},
		{"must check in first", attendance.ErrMustCheckInFirst, http.StatusConflict, CodeConflict},
		{"invalid location", attendance.ErrInvalidLocation, http.StatusBadRequest, CodeBadRequest},
		{"device", attendance.ErrDeviceNotAllowed, http.StatusForbidden, CodeForbidden},
		{"rule violation", fmt.Errorf("%w: outside any shift window", attendance.ErrInvalidCheckIn), http.StatusUnprocessableEntity, CodeUnprocessable},
		{"no group", group.ErrNoAttendanceGroup, http.StatusNotFound, CodeNotFound},
		{"inactive group", group.ErrAttendanceGroupInactive, http.StatusConflict, CodeConflict},
		{"shift overlap", shift.ErrShiftOverlap, http.StatusConflict, CodeConflict},
		{"manager only", jwt.ErrManagerAccessRequired, http.StatusForbidden, CodeForbidden},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, CodeInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, validator.ValidationErrors{{Field: "start_time", Message: "start_time must use HH:MM format"}})

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "start_time must use HH:MM format", resp.Error.Details["start_time"])
}
