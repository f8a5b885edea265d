package postgresql_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/cmlabs-hris/attendance-rules/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	ctx := context.Background()

	setup, ok, err := NewTestDatabase(ctx)
	if !ok {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, err)
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)
	return setup
}

func TestGroupRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewGroupRepository(setup.DB)
	now := time.Now().Truncate(time.Second)

	created, err := repo.Save(ctx, group.AttendanceGroup{
		Name:      "Office",
		Type:      group.GroupTypeFlexible,
		Rules:     group.Rules{group.RuleFlexibleMinutes: 30, group.RuleLocationRequired: true},
		MemberIDs: []string{"emp-1"},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	t.Run("find by id", func(t *testing.T) {
		got, err := repo.Find(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Office", got.Name)
		assert.Equal(t, []string{"emp-1"}, got.MemberIDs)
		assert.True(t, got.Rules.LocationRequired())
		flex, err := got.Rules.FlexibleMinutes()
		require.NoError(t, err)
		assert.Equal(t, 30, *flex)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Find(ctx, "00000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)

		_, err = repo.Find(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)
	})

	t.Run("find by member skips inactive groups", func(t *testing.T) {
		got, err := repo.FindByMember(ctx, "emp-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)

		_, err = repo.Save(ctx, created.Deactivated(now.Add(time.Minute)))
		require.NoError(t, err)

		got, err = repo.FindByMember(ctx, "emp-1")
		require.NoError(t, err)
		assert.Nil(t, got)

		active, err := repo.FindActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})
}

func TestGroupRepository_Members(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewGroupRepository(setup.DB)
	now := time.Now().Truncate(time.Second)

	g, err := repo.Save(ctx, group.AttendanceGroup{
		Name: "Office", Type: group.GroupTypeFixed, Rules: group.Rules{}, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	t.Run("concurrent joins", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				added, err := repo.AddMember(ctx, g.ID, fmt.Sprintf("emp-%d", i), now)
				assert.NoError(t, err)
				assert.True(t, added)
			}()
		}
		wg.Wait()

		got, err := repo.Find(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, got.MemberCount())
	})

	t.Run("duplicate and removal", func(t *testing.T) {
		added, err := repo.AddMember(ctx, g.ID, "emp-0", now)
		require.NoError(t, err)
		assert.False(t, added)

		removed, err := repo.RemoveMember(ctx, g.ID, "emp-0", now)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.RemoveMember(ctx, g.ID, "emp-0", now)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("save keeps members", func(t *testing.T) {
		stale := g
		stale.Name = "Head office"
		saved, err := repo.Save(ctx, stale)
		require.NoError(t, err)
		assert.Equal(t, 19, saved.MemberCount())
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := repo.AddMember(ctx, "00000000-0000-4000-8000-000000000000", "emp-1", now)
		assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)
		_, err = repo.RemoveMember(ctx, "not-a-uuid", "emp-1", now)
		assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)
	})
}

func TestShiftRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	g, err := postgresql.NewGroupRepository(setup.DB).Save(ctx, group.AttendanceGroup{
		Name: "Factory", Type: group.GroupTypeShift, Rules: group.Rules{}, IsActive: true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	repo := postgresql.NewShiftRepository(setup.DB)
	day, err := repo.Save(ctx, shift.WorkShift{
		GroupID: g.ID, Name: "Day", StartTime: "06:00", EndTime: "14:00",
		BreakTimes: []shift.BreakTime{{Start: "10:00", End: "10:15"}},
		IsActive:   true, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = repo.Save(ctx, shift.WorkShift{
		GroupID: g.ID, Name: "Night", StartTime: "22:00", EndTime: "06:00", CrossDay: true,
		IsActive: true, CreatedAt: now.Add(time.Second), UpdatedAt: now,
	})
	require.NoError(t, err)

	shifts, err := repo.FindByGroupID(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, "Day", shifts[0].Name)
	assert.Equal(t, []shift.BreakTime{{Start: "10:00", End: "10:15"}}, shifts[0].BreakTimes)

	tests := []struct {
		name       string
		start, end string
		exclude    string
		want       int
	}{
		{"back to back", "14:00", "22:00", "", 0},
		{"overlaps day", "13:00", "15:00", "", 1},
		{"overlaps night across midnight", "23:00", "01:00", "", 1},
		{"excluded self", "07:00", "08:00", day.ID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindOverlappingShifts(ctx, g.ID, tt.start, tt.end, tt.exclude)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRecordRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewRecordRepository(setup.DB)

	loc := time.FixedZone("WIB", 7*3600)
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)
	workDate := attendance.DateOf(checkIn)

	rec, err := repo.Save(ctx, attendance.NewRecord("emp-1", workDate, checkIn).
		WithCheckIn(checkIn, attendance.CheckInTypeGPS, nil).
		WithStatus(attendance.StatusLate, checkIn))
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	got, err := repo.FindByEmployeeAndDate(ctx, "emp-1", workDate)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, attendance.StatusLate, got.Status)
	assert.Equal(t, "late arrival", *got.AbnormalReason)
	assert.True(t, got.CheckInTime.Equal(checkIn))

	recent, err := repo.FindRecentRecord(ctx, "emp-1", checkIn.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, rec.ID, recent.ID)

	t.Run("second insert keeps the first check-in", func(t *testing.T) {
		later := checkIn.Add(10 * time.Minute)
		dup, err := repo.Save(ctx, attendance.NewRecord("emp-1", workDate, later).
			WithStatus(attendance.StatusAbsent, later))
		require.NoError(t, err)
		assert.Equal(t, rec.ID, dup.ID)
		require.NotNil(t, dup.CheckInTime)
		assert.True(t, dup.CheckInTime.Equal(checkIn))
		assert.Equal(t, attendance.StatusLate, dup.Status)
	})

	t.Run("check-out before check-in is rejected by the table", func(t *testing.T) {
		_, err := repo.Save(ctx, got.WithCheckOut(checkIn.Add(-time.Minute), nil))
		assert.Error(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.Save(ctx, attendance.Record{ID: "00000000-0000-4000-8000-000000000000", EmployeeID: "x", WorkDate: workDate, Status: attendance.StatusNormal})
		assert.True(t, errors.Is(err, attendance.ErrRecordNotFound))
	})

	none, err := repo.FindByEmployeeAndDate(ctx, "emp-2", workDate)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestHolidayRepository(t *testing.T) {
	setup := setupTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewHolidayRepository(setup.DB)

	_, err := setup.DB.Exec(ctx, `INSERT INTO holidays (date, name) VALUES ('2025-03-31', 'Eid al-Fitr')`)
	require.NoError(t, err)

	isHoliday, err := repo.IsHoliday(ctx, time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, isHoliday)

	isHoliday, err = repo.IsHoliday(ctx, time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, isHoliday)

	err = setup.DB.WithinTransaction(ctx, func(ctx context.Context) error {
		isHoliday, err := repo.IsHoliday(ctx, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
		assert.True(t, isHoliday)
		return err
	})
	require.NoError(t, err)
}
