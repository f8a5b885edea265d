package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/holiday"
)

// HolidayCalendar is an in-memory holiday.Checker.
type HolidayCalendar struct {
	mu   sync.RWMutex
	days map[string]holiday.Holiday
}

func (c *HolidayCalendar) Add(h holiday.Holiday) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.days[h.Date.Format(time.DateOnly)] = h
}

// IsHoliday implements holiday.Checker.
func (c *HolidayCalendar) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.days[date.Format(time.DateOnly)]
	return ok, nil
}

func NewHolidayCalendar(holidays ...holiday.Holiday) *HolidayCalendar {
	c := &HolidayCalendar{days: make(map[string]holiday.Holiday)}
	for _, h := range holidays {
		c.Add(h)
	}
	return c
}
