// Package memory holds mutex-guarded repositories for single-process
// deployments and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/google/uuid"
)

type groupRepositoryImpl struct {
	mu     sync.RWMutex
	order  []string
	groups map[string]group.AttendanceGroup
}

// Find implements group.Repository.
func (r *groupRepositoryImpl) Find(ctx context.Context, id string) (group.AttendanceGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return group.AttendanceGroup{}, group.ErrAttendanceGroupNotFound
	}
	return copyGroup(g), nil
}

// Save implements group.Repository.
func (r *groupRepositoryImpl) Save(ctx context.Context, g group.AttendanceGroup) (group.AttendanceGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return group.AttendanceGroup{}, err
		}
		g.ID = id.String()
		r.order = append(r.order, g.ID)
	} else {
		stored, ok := r.groups[g.ID]
		if !ok {
			return group.AttendanceGroup{}, group.ErrAttendanceGroupNotFound
		}
		g.MemberIDs = stored.MemberIDs
	}

	r.groups[g.ID] = copyGroup(g)
	return copyGroup(g), nil
}

// AddMember implements group.Repository.
func (r *groupRepositoryImpl) AddMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error) {
	return r.updateMembers(groupID, func(g group.AttendanceGroup) group.AttendanceGroup {
		return g.WithMember(employeeID, now)
	})
}

// RemoveMember implements group.Repository.
func (r *groupRepositoryImpl) RemoveMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error) {
	return r.updateMembers(groupID, func(g group.AttendanceGroup) group.AttendanceGroup {
		return g.WithoutMember(employeeID, now)
	})
}

// updateMembers applies fn to the stored group while holding the write lock.
func (r *groupRepositoryImpl) updateMembers(groupID string, fn func(group.AttendanceGroup) group.AttendanceGroup) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return false, group.ErrAttendanceGroupNotFound
	}
	updated := fn(copyGroup(g))
	if slices.Equal(updated.MemberIDs, g.MemberIDs) {
		return false, nil
	}
	r.groups[groupID] = updated
	return true, nil
}

// FindByMember implements group.Repository.
func (r *groupRepositoryImpl) FindByMember(ctx context.Context, employeeID string) (*group.AttendanceGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		g := r.groups[id]
		if g.IsActive && g.HasMember(employeeID) {
			found := copyGroup(g)
			return &found, nil
		}
	}
	return nil, nil
}

// FindActive implements group.Repository.
func (r *groupRepositoryImpl) FindActive(ctx context.Context) ([]group.AttendanceGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := []group.AttendanceGroup{}
	for _, id := range r.order {
		if g := r.groups[id]; g.IsActive {
			active = append(active, copyGroup(g))
		}
	}
	return active, nil
}

func copyGroup(g group.AttendanceGroup) group.AttendanceGroup {
	g.Rules = g.Rules.Clone()
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g
}

func NewGroupRepository() group.Repository {
	return &groupRepositoryImpl{groups: make(map[string]group.AttendanceGroup)}
}
