package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_Members(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupRepository()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	g, err := repo.Save(ctx, group.AttendanceGroup{Name: "Office", Type: group.GroupTypeFixed, IsActive: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	added, err := repo.AddMember(ctx, g.ID, "emp-1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AddMember(ctx, g.ID, "emp-1", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, added)

	got, err := repo.Find(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1"}, got.MemberIDs)
	assert.Equal(t, now.Add(time.Minute), got.UpdatedAt)

	removed, err := repo.RemoveMember(ctx, g.ID, "emp-1", now)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveMember(ctx, g.ID, "emp-1", now)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = repo.AddMember(ctx, "missing", "emp-1", now)
	assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)
	_, err = repo.RemoveMember(ctx, "missing", "emp-1", now)
	assert.ErrorIs(t, err, group.ErrAttendanceGroupNotFound)
}

func TestGroupRepository_SaveKeepsMembers(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupRepository()

	g, err := repo.Save(ctx, group.AttendanceGroup{Name: "Office", Type: group.GroupTypeFixed, MemberIDs: []string{"emp-1"}, IsActive: true})
	require.NoError(t, err)

	_, err = repo.AddMember(ctx, g.ID, "emp-2", time.Now())
	require.NoError(t, err)

	g.Name = "Head office"
	g.MemberIDs = nil
	saved, err := repo.Save(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1", "emp-2"}, saved.MemberIDs)
	assert.Equal(t, "Head office", saved.Name)
}

func TestGroupRepository_ConcurrentAddMember(t *testing.T) {
	ctx := context.Background()
	repo := NewGroupRepository()

	g, err := repo.Save(ctx, group.AttendanceGroup{Name: "Office", Type: group.GroupTypeFixed, IsActive: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AddMember(ctx, g.ID, fmt.Sprintf("emp-%d", i), time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Find(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.MemberCount())
}
