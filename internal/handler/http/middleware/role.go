package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CanManageAttendance(r.Context()) {
			response.HandleError(w, jwt.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CanManageAttendance reports whether the verified token belongs to a
// manager or owner.
func CanManageAttendance(ctx context.Context) bool {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return false
	}
	return jwt.RoleFromClaims(claims).CanManageAttendance()
}
