package attendance

import (
	"slices"
	"time"
)

type Status string

const (
	StatusNormal   Status = "normal"
	StatusLate     Status = "late"
	StatusEarly    Status = "early"
	StatusAbsent   Status = "absent"
	StatusLeave    Status = "leave"
	StatusOvertime Status = "overtime"
	StatusHoliday  Status = "holiday"
)

var StatusValues = []string{
	string(StatusNormal),
	string(StatusLate),
	string(StatusEarly),
	string(StatusAbsent),
	string(StatusLeave),
	string(StatusOvertime),
	string(StatusHoliday),
}

func (s Status) Valid() bool {
	return slices.Contains(StatusValues, string(s))
}

// CheckInType is how the check event was captured.
type CheckInType string

const (
	CheckInTypeManual      CheckInType = "manual"
	CheckInTypeGPS         CheckInType = "gps"
	CheckInTypeWiFi        CheckInType = "wifi"
	CheckInTypeFace        CheckInType = "face"
	CheckInTypeFingerprint CheckInType = "fingerprint"
	CheckInTypeQRCode      CheckInType = "qrcode"
)

var CheckInTypeValues = []string{
	string(CheckInTypeManual),
	string(CheckInTypeGPS),
	string(CheckInTypeWiFi),
	string(CheckInTypeFace),
	string(CheckInTypeFingerprint),
	string(CheckInTypeQRCode),
}

func (t CheckInType) Valid() bool {
	return slices.Contains(CheckInTypeValues, string(t))
}

// Record is one employee's attendance for one work date.
type Record struct {
	ID               string
	EmployeeID       string
	WorkDate         time.Time // calendar date, time part is zero
	CheckInTime      *time.Time
	CheckOutTime     *time.Time
	CheckInType      *CheckInType
	CheckInLocation  *string // "lat,lng (address)"
	CheckOutLocation *string
	Status           Status
	AbnormalReason   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r Record) HasCheckedIn() bool {
	return r.CheckInTime != nil
}

func (r Record) HasCheckedOut() bool {
	return r.CheckOutTime != nil
}

// IsOpen reports a check-in without a matching check-out.
func (r Record) IsOpen() bool {
	return r.HasCheckedIn() && !r.HasCheckedOut()
}

// WorkDurationMinutes is the whole minutes between check-in and check-out,
// 0 while the record is open.
func (r Record) WorkDurationMinutes() int {
	if r.CheckInTime == nil || r.CheckOutTime == nil {
		return 0
	}
	d := r.CheckOutTime.Sub(*r.CheckInTime)
	if d <= 0 {
		return 0
	}
	return int(d.Minutes())
}

// NewRecord starts an empty record for the employee's work date.
func NewRecord(employeeID string, workDate time.Time, now time.Time) Record {
	return Record{
		EmployeeID: employeeID,
		WorkDate:   DateOf(workDate),
		Status:     StatusNormal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithCheckIn returns a copy of r carrying the check-in event.
func (r Record) WithCheckIn(at time.Time, kind CheckInType, location *string) Record {
	checkIn := at
	r.CheckInTime = &checkIn
	r.CheckInType = &kind
	r.CheckInLocation = location
	r.UpdatedAt = at
	return r
}

// WithCheckOut returns a copy of r carrying the check-out event.
func (r Record) WithCheckOut(at time.Time, location *string) Record {
	checkOut := at
	r.CheckOutTime = &checkOut
	r.CheckOutLocation = location
	r.UpdatedAt = at
	return r
}

// WithStatus sets the status and the matching abnormal reason.
func (r Record) WithStatus(status Status, now time.Time) Record {
	r.Status = status
	switch status {
	case StatusLate:
		reason := "late arrival"
		r.AbnormalReason = &reason
	case StatusEarly:
		reason := "early departure"
		r.AbnormalReason = &reason
	case StatusAbsent:
		reason := "no check-in recorded"
		r.AbnormalReason = &reason
	default:
		r.AbnormalReason = nil
	}
	r.UpdatedAt = now
	return r
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
