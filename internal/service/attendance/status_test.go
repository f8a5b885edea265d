package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/stretchr/testify/assert"
)

func TestCheckInStatus(t *testing.T) {
	f := newFixture(t)
	f.newGroup(t, group.GroupTypeFlexible, []group.CreateShiftRequest{officeShift(intPtr(30))}, "flex")
	f.newGroup(t, group.GroupTypeFixed, []group.CreateShiftRequest{officeShift(nil)}, "fixed")
	f.newGroup(t, group.GroupTypeShift, []group.CreateShiftRequest{
		{Name: "Morning", StartTime: "06:00", EndTime: "14:00"},
		{Name: "Evening", StartTime: "14:00", EndTime: "22:00"},
	}, "rotating")

	tests := []struct {
		name     string
		employee string
		clock    string
		want     attendance.Status
	}{
		{"flexible early edge", "flex", "08:31", attendance.StatusNormal},
		{"flexible late edge", "flex", "09:30", attendance.StatusNormal},
		{"flexible past window", "flex", "09:31", attendance.StatusLate},
		{"flexible well before window", "flex", "08:00", attendance.StatusNormal},
		{"fixed on time", "fixed", "09:00", attendance.StatusNormal},
		{"fixed one minute late", "fixed", "09:01", attendance.StatusLate},
		{"first non-normal shift decides", "rotating", "14:00", attendance.StatusLate},
		{"before every shift", "rotating", "05:30", attendance.StatusNormal},
		{"no group fails open", "nobody", "11:00", attendance.StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.calculator.CheckInStatus(context.Background(), tt.employee, at(tt.clock))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("seconds are ignored", func(t *testing.T) {
		got := f.calculator.CheckInStatus(context.Background(), "fixed", at("09:00").Add(59*time.Second))
		assert.Equal(t, attendance.StatusNormal, got)
	})
}

func TestCheckOutStatus(t *testing.T) {
	f := newFixture(t)
	f.newGroup(t, group.GroupTypeFixed, []group.CreateShiftRequest{officeShift(nil)}, "emp-1")

	normal := attendance.Record{EmployeeID: "emp-1", Status: attendance.StatusNormal}
	late := attendance.Record{EmployeeID: "emp-1", Status: attendance.StatusLate}
	orphan := attendance.Record{EmployeeID: "nobody", Status: attendance.StatusNormal}

	tests := []struct {
		name   string
		record attendance.Record
		clock  string
		want   attendance.Status
	}{
		{"leaves early", normal, "17:50", attendance.StatusEarly},
		{"leaves on time", normal, "18:00", attendance.StatusNormal},
		{"within overtime threshold", normal, "18:25", attendance.StatusNormal},
		{"at overtime threshold", normal, "18:30", attendance.StatusNormal},
		{"past overtime threshold", normal, "18:31", attendance.StatusOvertime},
		{"late stays late", late, "18:31", attendance.StatusLate},
		{"late stays late when leaving early", late, "16:00", attendance.StatusLate},
		{"no group fails open", orphan, "12:00", attendance.StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.calculator.CheckOutStatus(context.Background(), tt.record, at(tt.clock))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckOutStatus_CustomThreshold(t *testing.T) {
	f := newFixture(t)
	f.newGroup(t, group.GroupTypeFixed, []group.CreateShiftRequest{officeShift(nil)}, "emp-1")
	calc := NewStatusCalculator(f.rules, 0, time.UTC)

	got := calc.CheckOutStatus(context.Background(), attendance.Record{EmployeeID: "emp-1"}, at("18:01"))
	assert.Equal(t, attendance.StatusOvertime, got)
}
