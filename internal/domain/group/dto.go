package group

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/utils"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/validator"
)

// ========================================
// RULE EVALUATION
// ========================================

// ApplicableRules is the resolved {group, shifts} pair governing an employee.
type ApplicableRules struct {
	Group  AttendanceGroup
	Shifts []shift.WorkShift
	Rules  Rules
	Type   GroupType
}

// ActiveShifts keeps the storage order of the active shifts.
func (a ApplicableRules) ActiveShifts() []shift.WorkShift {
	active := make([]shift.WorkShift, 0, len(a.Shifts))
	for _, s := range a.Shifts {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}

type CheckKind string

const (
	CheckKindIn  CheckKind = "check_in"
	CheckKindOut CheckKind = "check_out"
)

type ValidateAttendanceRequest struct {
	EmployeeID string             `json:"employee_id"`
	CheckTime  time.Time          `json:"check_time"`
	Kind       CheckKind          `json:"type"`
	Location   *utils.Coordinates `json:"location,omitempty"`
}

func (r *ValidateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.CheckTime.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "check_time",
			Message: "check_time is required",
		})
	}
	if r.Kind != CheckKindIn && r.Kind != CheckKindOut {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be 'check_in' or 'check_out'",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ValidationResult struct {
	Violations []string `json:"violations"`
	Warnings   []string `json:"warnings"`
}

func (v ValidationResult) OK() bool {
	return len(v.Violations) == 0
}

// Error joins the violations into one user-facing message.
func (v ValidationResult) Error() string {
	return strings.Join(v.Violations, "; ")
}

// ========================================
// STATISTICS
// ========================================

const (
	MemberRangeEmpty  = "0"
	MemberRangeSmall  = "1-10"
	MemberRangeMedium = "11-50"
	MemberRangeLarge  = "51-100"
	MemberRangeHuge   = "100+"
)

// MemberRange buckets a member count for reporting.
func MemberRange(count int) string {
	switch {
	case count <= 0:
		return MemberRangeEmpty
	case count <= 10:
		return MemberRangeSmall
	case count <= 50:
		return MemberRangeMedium
	case count <= 100:
		return MemberRangeLarge
	default:
		return MemberRangeHuge
	}
}

type GroupStatistics struct {
	TotalGroups   int               `json:"total_groups"`
	TotalMembers  int               `json:"total_members"`
	TotalShifts   int               `json:"total_shifts"`
	ByType        map[GroupType]int `json:"by_type"`
	ByMemberRange map[string]int    `json:"by_member_range"`
}

// ========================================
// GROUP DTOs
// ========================================

type CreateGroupRequest struct {
	Name  string    `json:"name"`
	Type  GroupType `json:"type"`
	Rules Rules     `json:"rules"`
}

func (r *CreateGroupRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	} else if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}

	if !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(GroupTypeValues, ", "),
		})
	}

	if err := r.Rules.Validate(); err != nil {
		if ruleErrs, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ruleErrs...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateGroupRequest struct {
	ID    string     `json:"-"`
	Name  *string    `json:"name,omitempty"`
	Type  *GroupType `json:"type,omitempty"`
	Rules Rules      `json:"rules,omitempty"`
}

func (r *UpdateGroupRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name cannot be empty",
		})
	}
	if r.Type != nil && !r.Type.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(GroupTypeValues, ", "),
		})
	}
	if r.Rules != nil {
		if err := r.Rules.Validate(); err != nil {
			if ruleErrs, ok := err.(validator.ValidationErrors); ok {
				errs = append(errs, ruleErrs...)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GroupResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        GroupType      `json:"type"`
	Rules       map[string]any `json:"rules"`
	MemberIDs   []string       `json:"member_ids"`
	MemberCount int            `json:"member_count"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
}

func NewGroupResponse(g AttendanceGroup) GroupResponse {
	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	return GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Type:        g.Type,
		Rules:       g.Rules.Clone(),
		MemberIDs:   members,
		MemberCount: g.MemberCount(),
		IsActive:    g.IsActive,
		CreatedAt:   g.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   g.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

type AssignMemberRequest struct {
	EmployeeID string `json:"employee_id"`
	GroupID    string `json:"-"`
}

func (r *AssignMemberRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// SHIFT DTOs
// ========================================

type CreateShiftRequest struct {
	GroupID         string            `json:"-"`
	Name            string            `json:"name"`
	StartTime       string            `json:"start_time"` // HH:MM
	EndTime         string            `json:"end_time"`   // HH:MM
	FlexibleMinutes *int              `json:"flexible_minutes,omitempty"`
	BreakTimes      []shift.BreakTime `json:"break_times,omitempty"`
	CrossDay        bool              `json:"cross_day"`
}

func (r *CreateShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.GroupID) {
		errs = append(errs, validator.ValidationError{
			Field:   "group_id",
			Message: "group_id is required",
		})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	errs = append(errs, validateShiftWindow(r.StartTime, r.EndTime, r.CrossDay, r.FlexibleMinutes, r.BreakTimes)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateShiftRequest struct {
	ID              string             `json:"-"`
	Name            *string            `json:"name,omitempty"`
	StartTime       *string            `json:"start_time,omitempty"`
	EndTime         *string            `json:"end_time,omitempty"`
	FlexibleMinutes *int               `json:"flexible_minutes,omitempty"`
	BreakTimes      *[]shift.BreakTime `json:"break_times,omitempty"`
	CrossDay        *bool              `json:"cross_day,omitempty"`
}

// Apply merges the request into s. The merged shift must pass ValidateShift.
func (r UpdateShiftRequest) Apply(s shift.WorkShift) shift.WorkShift {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.StartTime != nil {
		s.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		s.EndTime = *r.EndTime
	}
	if r.FlexibleMinutes != nil {
		flex := *r.FlexibleMinutes
		s.FlexibleMinutes = &flex
	}
	if r.BreakTimes != nil {
		s.BreakTimes = append([]shift.BreakTime(nil), (*r.BreakTimes)...)
	}
	if r.CrossDay != nil {
		s.CrossDay = *r.CrossDay
	}
	return s
}

// ValidateShift checks a complete shift definition.
func ValidateShift(s shift.WorkShift) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(s.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	errs = append(errs, validateShiftWindow(s.StartTime, s.EndTime, s.CrossDay, s.FlexibleMinutes, s.BreakTimes)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateShiftWindow(start, end string, crossDay bool, flex *int, breaks []shift.BreakTime) validator.ValidationErrors {
	var errs validator.ValidationErrors

	startOK := validator.IsValidClock(start)
	endOK := validator.IsValidClock(end)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must use HH:MM format",
		})
	}
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must use HH:MM format",
		})
	}
	if startOK && endOK {
		if crossDay && end >= start {
			errs = append(errs, validator.ValidationError{
				Field:   "cross_day",
				Message: "cross-day shift must end earlier in the day than it starts",
			})
		}
		if !crossDay && end <= start {
			errs = append(errs, validator.ValidationError{
				Field:   "end_time",
				Message: "end_time must be after start_time, set cross_day for overnight shifts",
			})
		}
	}

	if flex != nil && (*flex < shift.MinFlexibleMinutes || *flex > shift.MaxFlexibleMinutes) {
		errs = append(errs, validator.ValidationError{
			Field:   "flexible_minutes",
			Message: "flexible_minutes must be between 0 and 120",
		})
	}

	window := shift.WorkShift{StartTime: start, EndTime: end, CrossDay: crossDay}
	for i, b := range breaks {
		field := "break_times[" + validator.Itoa(i) + "]"
		if !validator.IsValidClock(b.Start) || !validator.IsValidClock(b.End) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "break start and end must use HH:MM format",
			})
			continue
		}
		if startOK && endOK && (!window.Contains(b.Start) || !window.Contains(b.End)) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "break time must lie inside the shift window",
			})
		}
	}

	return errs
}

type ShiftResponse struct {
	ID              string            `json:"id"`
	GroupID         string            `json:"group_id"`
	Name            string            `json:"name"`
	StartTime       string            `json:"start_time"`
	EndTime         string            `json:"end_time"`
	FlexibleMinutes *int              `json:"flexible_minutes,omitempty"`
	BreakTimes      []shift.BreakTime `json:"break_times"`
	CrossDay        bool              `json:"cross_day"`
	IsActive        bool              `json:"is_active"`
}

func NewShiftResponse(s shift.WorkShift) ShiftResponse {
	breaks := s.BreakTimes
	if breaks == nil {
		breaks = []shift.BreakTime{}
	}
	return ShiftResponse{
		ID:              s.ID,
		GroupID:         s.GroupID,
		Name:            s.Name,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		FlexibleMinutes: s.FlexibleMinutes,
		BreakTimes:      breaks,
		CrossDay:        s.CrossDay,
		IsActive:        s.IsActive,
	}
}
