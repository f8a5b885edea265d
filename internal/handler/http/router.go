package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-rules/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// CheckRateLimit throttles check-in/out per employee; zero disables it.
	CheckRateLimit rate.Limit
	CheckRateBurst int
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, groupHandler GroupHandler) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				throttled := r.With(middleware.RateLimitByEmployee(opts.CheckRateLimit, opts.CheckRateBurst))
				throttled.Post("/check-in", attendanceHandler.CheckIn)
				throttled.Post("/check-out", attendanceHandler.CheckOut)
				r.Get("/eligibility", attendanceHandler.Eligibility)
				r.Post("/validate", attendanceHandler.Validate)
				r.Get("/today", attendanceHandler.Today)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", groupHandler.ListGroups)
				r.With(middleware.RequireManager).Post("/", groupHandler.CreateGroup)
				r.With(middleware.RequireManager).Get("/statistics", groupHandler.Statistics)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", groupHandler.GetGroup)
					r.Get("/shifts", groupHandler.ListShifts)

					// Manager only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireManager)
						r.Put("/", groupHandler.UpdateGroup)
						r.Delete("/", groupHandler.DeactivateGroup)
						r.Post("/shifts", groupHandler.CreateShift)
						r.Post("/members", groupHandler.AssignMember)
						r.Delete("/members/{employeeID}", groupHandler.RemoveMember)
					})
				})
			})

			r.Route("/shifts/{id}", func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Put("/", groupHandler.UpdateShift)
				r.Delete("/", groupHandler.DeactivateShift)
			})

			r.Get("/employees/{employeeID}/group", groupHandler.EmployeeGroup)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
