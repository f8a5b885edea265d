package attendance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type CheckRequest struct {
	EmployeeID string      `json:"-"`
	Type       CheckInType `json:"type"`
	Data       CheckData   `json:"data"`
}

// CheckData is the optional capture payload of a check event.
type CheckData struct {
	Location *LocationInput `json:"location,omitempty"`
	DeviceID *string        `json:"device_id,omitempty"`
}

// LocationInput keeps lat/lng loosely typed; clients send numbers or
// numeric strings.
type LocationInput struct {
	Lat     any    `json:"lat"`
	Lng     any    `json:"lng"`
	Address string `json:"address,omitempty"`
}

// Coordinates parses and range-checks the payload.
func (l LocationInput) Coordinates() (utils.Coordinates, error) {
	lat, ok := validator.ToFloat(l.Lat)
	if !ok {
		return utils.Coordinates{}, fmt.Errorf("%w: latitude must be numeric", ErrInvalidLocation)
	}
	lng, ok := validator.ToFloat(l.Lng)
	if !ok {
		return utils.Coordinates{}, fmt.Errorf("%w: longitude must be numeric", ErrInvalidLocation)
	}
	if !validator.IsValidCoordinate(lat, lng) {
		return utils.Coordinates{}, fmt.Errorf("%w: latitude must be between -90 and 90, longitude between -180 and 180", ErrInvalidLocation)
	}
	return utils.Coordinates{Latitude: lat, Longitude: lng}, nil
}

// FormatLocation renders "lat,lng (address)", or "lat,lng" without an address.
func FormatLocation(c utils.Coordinates, address string) string {
	s := strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
	if address = strings.TrimSpace(address); address != "" {
		s += " (" + address + ")"
	}
	return s
}

// Validate checks the request shape. Location and device are checked by the
// service so they surface as ErrInvalidLocation / ErrDeviceNotAllowed.
func (r *CheckRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.Type == "" {
		r.Type = CheckInTypeManual
	}
	if !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(CheckInTypeValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID                  string  `json:"id"`
	EmployeeID          string  `json:"employee_id"`
	WorkDate            string  `json:"work_date"`
	CheckInTime         *string `json:"check_in_time,omitempty"`
	CheckOutTime        *string `json:"check_out_time,omitempty"`
	CheckInType         *string `json:"check_in_type,omitempty"`
	CheckInLocation     *string `json:"check_in_location,omitempty"`
	CheckOutLocation    *string `json:"check_out_location,omitempty"`
	Status              Status  `json:"status"`
	AbnormalReason      *string `json:"abnormal_reason,omitempty"`
	WorkDurationMinutes int     `json:"work_duration_minutes"`
}

func NewRecordResponse(r Record) RecordResponse {
	resp := RecordResponse{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		WorkDate:            r.WorkDate.Format("2006-01-02"),
		CheckInLocation:     r.CheckInLocation,
		CheckOutLocation:    r.CheckOutLocation,
		Status:              r.Status,
		AbnormalReason:      r.AbnormalReason,
		WorkDurationMinutes: r.WorkDurationMinutes(),
	}
	if r.CheckInTime != nil {
		v := r.CheckInTime.Format("2006-01-02 15:04:05")
		resp.CheckInTime = &v
	}
	if r.CheckOutTime != nil {
		v := r.CheckOutTime.Format("2006-01-02 15:04:05")
		resp.CheckOutTime = &v
	}
	if r.CheckInType != nil {
		v := string(*r.CheckInType)
		resp.CheckInType = &v
	}
	return resp
}

type EligibilityResponse struct {
	CanCheckIn  bool `json:"can_check_in"`
	CanCheckOut bool `json:"can_check_out"`
}
