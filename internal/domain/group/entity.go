package group

import (
	"slices"
	"time"
)

type GroupType string

const (
	GroupTypeFixed    GroupType = "fixed"    // one schedule for everyone
	GroupTypeFlexible GroupType = "flexible" // ± window around the shift start
	GroupTypeShift    GroupType = "shift"    // rotating shifts
)

var GroupTypeValues = []string{
	string(GroupTypeFixed),
	string(GroupTypeFlexible),
	string(GroupTypeShift),
}

func (t GroupType) Valid() bool {
	return slices.Contains(GroupTypeValues, string(t))
}

type AttendanceGroup struct {
	ID        string
	Name      string
	Type      GroupType
	Rules     Rules
	MemberIDs []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (g AttendanceGroup) HasMember(employeeID string) bool {
	return slices.Contains(g.MemberIDs, employeeID)
}

func (g AttendanceGroup) MemberCount() int {
	return len(g.MemberIDs)
}

// WithMember returns a copy of g that includes employeeID. Listing order is
// preserved and the id is appended only once.
func (g AttendanceGroup) WithMember(employeeID string, now time.Time) AttendanceGroup {
	if g.HasMember(employeeID) {
		return g
	}
	members := make([]string, 0, len(g.MemberIDs)+1)
	members = append(members, g.MemberIDs...)
	g.MemberIDs = append(members, employeeID)
	g.UpdatedAt = now
	return g
}

// WithoutMember returns a copy of g without employeeID.
func (g AttendanceGroup) WithoutMember(employeeID string, now time.Time) AttendanceGroup {
	if !g.HasMember(employeeID) {
		return g
	}
	members := make([]string, 0, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		if id != employeeID {
			members = append(members, id)
		}
	}
	g.MemberIDs = members
	g.UpdatedAt = now
	return g
}

func (g AttendanceGroup) WithRules(rules Rules, now time.Time) AttendanceGroup {
	g.Rules = rules.Clone()
	g.UpdatedAt = now
	return g
}

// Deactivated soft-deletes the group. Groups are never removed from storage.
func (g AttendanceGroup) Deactivated(now time.Time) AttendanceGroup {
	g.IsActive = false
	g.UpdatedAt = now
	return g
}
