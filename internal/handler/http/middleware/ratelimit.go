package middleware

import (
	"net/http"
	"sync"

	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/response"
	"golang.org/x/time/rate"
)

// EmployeeRateLimiter hands out one token bucket per employee id.
type EmployeeRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

func NewEmployeeRateLimiter(r rate.Limit, b int) *EmployeeRateLimiter {
	return &EmployeeRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        r,
		b:        b,
	}
}

func (l *EmployeeRateLimiter) Limiter(employeeID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[employeeID]
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
		l.limiters[employeeID] = limiter
	}
	return limiter
}

// RateLimitByEmployee must run after AuthRequired. A non-positive rate
// disables limiting.
func RateLimitByEmployee(r rate.Limit, b int) func(http.Handler) http.Handler {
	if r <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := NewEmployeeRateLimiter(r, max(b, 1))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			employeeID, ok := EmployeeID(req.Context())
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			if !limiter.Limiter(employeeID).Allow() {
				response.TooManyRequests(w, "Too many attendance requests, slow down")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
