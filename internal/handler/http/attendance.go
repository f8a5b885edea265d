package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Eligibility(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	checkInService attendance.CheckInService
	ruleService    group.RuleService
	now            func() time.Time
}

func NewAttendanceHandler(checkInService attendance.CheckInService, ruleService group.RuleService) AttendanceHandler {
	return &attendanceHandlerImpl{
		checkInService: checkInService,
		ruleService:    ruleService,
		now:            time.Now,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckRequest(w, r)
	if !ok {
		return
	}

	record, err := h.checkInService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", attendance.NewRecordResponse(record))
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCheckRequest(w, r)
	if !ok {
		return
	}

	record, err := h.checkInService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", attendance.NewRecordResponse(record))
}

// Eligibility implements AttendanceHandler.
func (h *attendanceHandlerImpl) Eligibility(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeFromRequest(w, r)
	if !ok {
		return
	}

	response.Success(w, attendance.EligibilityResponse{
		CanCheckIn:  h.checkInService.CanCheckIn(r.Context(), employeeID),
		CanCheckOut: h.checkInService.CanCheckOut(r.Context(), employeeID),
	})
}

type validateRequest struct {
	CheckTime string             `json:"check_time,omitempty"`
	Kind      group.CheckKind    `json:"type"`
	Location  *utils.Coordinates `json:"location,omitempty"`
}

// Validate implements AttendanceHandler. It dry-runs the rules without
// recording anything.
func (h *attendanceHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeFromRequest(w, r)
	if !ok {
		return
	}

	var body validateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.HandleError(w, err)
		return
	}

	req := group.ValidateAttendanceRequest{
		EmployeeID: employeeID,
		CheckTime:  h.now(),
		Kind:       body.Kind,
		Location:   body.Location,
	}
	if body.CheckTime != "" {
		checkTime, ok := validator.IsValidDateTime(body.CheckTime)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "check_time", Message: "check_time must be an RFC3339 timestamp"}})
			return
		}
		req.CheckTime = checkTime
	}

	result, err := h.ruleService.ValidateAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeFromRequest(w, r)
	if !ok {
		return
	}

	record, err := h.checkInService.TodayRecord(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewRecordResponse(record))
}

func employeeFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	employeeID, ok := middleware.EmployeeID(r.Context())
	if !ok {
		slog.Error("employee_id not found in request context")
		response.Forbidden(w, "Employee ID not found in token")
		return "", false
	}
	return employeeID, true
}

// decodeCheckRequest accepts an empty body as a manual check without capture
// data.
func decodeCheckRequest(w http.ResponseWriter, r *http.Request) (attendance.CheckRequest, bool) {
	var req attendance.CheckRequest

	employeeID, ok := employeeFromRequest(w, r)
	if !ok {
		return req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Failed to decode check request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return req, false
	}
	req.EmployeeID = employeeID
	return req, true
}
