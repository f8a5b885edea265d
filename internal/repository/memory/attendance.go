package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/google/uuid"
)

type recordKey struct {
	employeeID string
	date       string
}

type recordRepositoryImpl struct {
	mu      sync.RWMutex
	records map[recordKey]attendance.Record
	byID    map[string]recordKey
}

func keyOf(employeeID string, date time.Time) recordKey {
	return recordKey{employeeID: employeeID, date: date.Format(time.DateOnly)}
}

// FindByEmployeeAndDate implements attendance.RecordRepository.
func (r *recordRepositoryImpl) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[keyOf(employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// FindRecentRecord implements attendance.RecordRepository.
func (r *recordRepositoryImpl) FindRecentRecord(ctx context.Context, employeeID string, since time.Time) (*attendance.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *attendance.Record
	for key, rec := range r.records {
		if key.employeeID != employeeID || rec.CheckInTime == nil || rec.CheckInTime.Before(since) {
			continue
		}
		if latest == nil || rec.CheckInTime.After(*latest.CheckInTime) {
			found := rec
			latest = &found
		}
	}
	return latest, nil
}

// Save implements attendance.RecordRepository. Inserting a second record for
// the same employee and date returns the stored one unchanged.
func (r *recordRepositoryImpl) Save(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(rec.EmployeeID, rec.WorkDate)
	if rec.ID == "" {
		if existing, ok := r.records[key]; ok {
			return existing, nil
		}
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Record{}, err
		}
		rec.ID = id.String()
	} else if oldKey, ok := r.byID[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	} else if oldKey != key {
		delete(r.records, oldKey)
	}

	r.records[key] = rec
	r.byID[rec.ID] = key
	return rec, nil
}

func NewRecordRepository() attendance.RecordRepository {
	return &recordRepositoryImpl{
		records: make(map[recordKey]attendance.Record),
		byID:    make(map[string]recordKey),
	}
}
