package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/config"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/holiday"
	"github.com/cmlabs-hris/attendance-rules/internal/domain/shift"
	appHTTP "github.com/cmlabs-hris/attendance-rules/internal/handler/http"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/lock"
	"github.com/cmlabs-hris/attendance-rules/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-rules/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-rules/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-rules/internal/service/rule"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

type repositories struct {
	tx       database.Transactor
	groups   group.Repository
	shifts   shift.Repository
	records  attendance.RecordRepository
	holidays holiday.Checker
	close    func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.App.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-rules"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	locker, closeLocker, err := openLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}

	ruleService := rule.NewRuleService(
		repos.tx,
		repos.groups,
		repos.shifts,
		repos.holidays,
		locker,
		cfg.Attendance.Location,
	)
	calculator := attendanceService.NewStatusCalculator(ruleService, cfg.Attendance.OvertimeThresholdMinutes, cfg.Attendance.Location)
	checkInService := attendanceService.NewCheckInService(repos.tx, repos.records, ruleService, calculator, cfg.Attendance)

	scheduler := cron.NewScheduler(ctx)
	cron.NewAbsenceJobs(
		repos.groups,
		repos.shifts,
		repos.records,
		repos.holidays,
		cfg.Attendance.AbsenceSweepInterval,
		cfg.Attendance.Location,
	).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			CheckRateLimit: rate.Limit(cfg.Attendance.CheckRateLimit),
			CheckRateBurst: cfg.Attendance.CheckRateBurst,
		},
		JWTService,
		appHTTP.NewAttendanceHandler(checkInService, ruleService),
		appHTTP.NewGroupHandler(ruleService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "db_driver", cfg.Database.Driver, "lock_driver", cfg.Lock.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return repositories{}, err
		}
		return repositories{
			tx:       db,
			groups:   postgresql.NewGroupRepository(db),
			shifts:   postgresql.NewShiftRepository(db),
			records:  postgresql.NewRecordRepository(db),
			holidays: postgresql.NewHolidayRepository(db),
			close:    db.Close,
		}, nil
	default:
		slog.Warn("Using in-memory storage, data is lost on restart")
		return repositories{
			tx:       database.NoopTransactor{},
			groups:   memory.NewGroupRepository(),
			shifts:   memory.NewShiftRepository(),
			records:  memory.NewRecordRepository(),
			holidays: memory.NewHolidayCalendar(),
			close:    func() {},
		}, nil
	}
}

func openLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func(), error) {
	if cfg.Lock.Driver != config.DriverRedis {
		return lock.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.RetryInterval), closeFn, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
