package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	"github.com/google/uuid"
)

type shiftRepositoryImpl struct {
	mu     sync.RWMutex
	order  []string
	shifts map[string]shift.WorkShift
}

// Find implements shift.Repository.
func (r *shiftRepositoryImpl) Find(ctx context.Context, id string) (shift.WorkShift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shifts[id]
	if !ok {
		return shift.WorkShift{}, shift.ErrShiftNotFound
	}
	return copyShift(s), nil
}

// Save implements shift.Repository.
func (r *shiftRepositoryImpl) Save(ctx context.Context, s shift.WorkShift) (shift.WorkShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return shift.WorkShift{}, err
		}
		s.ID = id.String()
		r.order = append(r.order, s.ID)
	} else if _, ok := r.shifts[s.ID]; !ok {
		return shift.WorkShift{}, shift.ErrShiftNotFound
	}

	r.shifts[s.ID] = copyShift(s)
	return copyShift(s), nil
}

// FindByGroupID implements shift.Repository. Shifts come back in insertion
// order.
func (r *shiftRepositoryImpl) FindByGroupID(ctx context.Context, groupID string) ([]shift.WorkShift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shift.WorkShift{}
	for _, id := range r.order {
		if s := r.shifts[id]; s.GroupID == groupID {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

// FindOverlappingShifts implements shift.Repository.
func (r *shiftRepositoryImpl) FindOverlappingShifts(ctx context.Context, groupID, start, end string, excludeID string) ([]shift.WorkShift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []shift.WorkShift{}
	for _, id := range r.order {
		s := r.shifts[id]
		if s.GroupID != groupID || !s.IsActive || s.ID == excludeID {
			continue
		}
		overlap, err := shift.WindowsOverlap(start, end, end < start, s.StartTime, s.EndTime, s.CrossDay)
		if err != nil {
			return nil, err
		}
		if overlap {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func copyShift(s shift.WorkShift) shift.WorkShift {
	if s.FlexibleMinutes != nil {
		flex := *s.FlexibleMinutes
		s.FlexibleMinutes = &flex
	}
	s.BreakTimes = slices.Clone(s.BreakTimes)
	return s
}

func NewShiftRepository() shift.Repository {
	return &shiftRepositoryImpl{shifts: make(map[string]shift.WorkShift)}
}
