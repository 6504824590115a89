// Command studiod runs the studio booking API server.
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

	"github.com/google/uuid"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/config"
	httptransport "github.com/example/studio-scheduler/internal/http"
	"github.com/example/studio-scheduler/internal/persistence/sqlite"
	"github.com/example/studio-scheduler/internal/timezone"
)

func main() {
	cfg, err := config.Load(os.Getenv("STUDIO_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now
	zones := timezone.NewResolver()

	studioRepo := sqlite.NewStudioRepository(pool)
	customerRepo := sqlite.NewCustomerRepository(pool)
	planRepo := sqlite.NewPlanRepository(pool)
	scheduleRepo := sqlite.NewScheduleRepository(pool)
	payrollRepo := sqlite.NewPayrollRepository(pool)
	bookingStore := sqlite.NewBookingStore(pool)

	studioService := application.NewStudioService(studioRepo, studioRepo, studioRepo, planRepo, planRepo, planRepo, zones, idGenerator, now, logger)
	customerService := application.NewCustomerService(customerRepo, idGenerator, now, logger)
	scheduleService := application.NewScheduleService(scheduleRepo, zones, idGenerator, now, logger)
	bookingService := application.NewBookingService(bookingStore, zones, idGenerator, now, logger)
	payrollService := application.NewPayrollService(payrollRepo, payrollRepo, studioRepo, scheduleRepo, idGenerator, now, logger)

	sweeper := application.NewSweeper(studioRepo, scheduleService,
		cfg.SweepInterval, time.Duration(cfg.GenerationHorizonDays)*24*time.Hour, now, logger)
	go sweeper.Run(ctx)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Studios:   httptransport.NewStudioHandler(studioService, logger),
		Customers: httptransport.NewCustomerHandler(customerService, logger),
		Schedules: httptransport.NewScheduleHandler(scheduleService, logger),
		Bookings:  httptransport.NewBookingHandler(bookingService, logger),
		Payroll:   httptransport.NewPayrollHandler(payrollService, logger),
		Resolver:  studioService,
		Logger:    logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.ResolvePrincipal(logger),
		},
		BookingMiddleware: []func(http.Handler) http.Handler{
			httptransport.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("studio API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
