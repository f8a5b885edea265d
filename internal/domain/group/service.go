package group

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
)

// RuleService owns group and shift configuration and evaluates
// attendance rules for check events.
type RuleService interface {
	// Groups
	CreateGroup(ctx context.Context, req CreateGroupRequest) (AttendanceGroup, error)
	UpdateGroup(ctx context.Context, req UpdateGroupRequest) (AttendanceGroup, error)
	DeactivateGroup(ctx context.Context, id string) error
	GetGroup(ctx context.Context, id string) (AttendanceGroup, error)
	ListActiveGroups(ctx context.Context) ([]AttendanceGroup, error)
	GroupStatistics(ctx context.Context) (GroupStatistics, error)

	// Shifts
	CreateShift(ctx context.Context, req CreateShiftRequest) (shift.WorkShift, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (shift.WorkShift, error)
	DeactivateShift(ctx context.Context, id string) error
	GetShift(ctx context.Context, id string) (shift.WorkShift, error)
	ListGroupShifts(ctx context.Context, groupID string) ([]shift.WorkShift, error)

	// Membership
	AssignEmployeeToGroup(ctx context.Context, employeeID, groupID string) (bool, error)
	RemoveEmployeeFromGroup(ctx context.Context, employeeID, groupID string) (bool, error)
	EmployeeGroup(ctx context.Context, employeeID string) (*AttendanceGroup, error)

	// Rule evaluation
	ApplicableRules(ctx context.Context, employeeID string, date time.Time) (ApplicableRules, error)
	ValidateAttendance(ctx context.Context, req ValidateAttendanceRequest) (ValidationResult, error)
}
