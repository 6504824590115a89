package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/studio-scheduler/internal/persistence"
)

// Sweeper periodically materializes upcoming instances for every studio.
// A failure for one studio is logged and never aborts the sweep of the
// others.
type Sweeper struct {
	studios   persistence.StudioRepository
	schedules *ScheduleService
	interval  time.Duration
	horizon   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSweeper wires a background generation sweep. interval defaults to six
// hours and horizon to 28 days when non-positive.
func NewSweeper(studios persistence.StudioRepository, schedules *ScheduleService, interval, horizon time.Duration, now func() time.Time, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if horizon <= 0 {
		horizon = 28 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		studios:   studios,
		schedules: schedules,
		interval:  interval,
		horizon:   horizon,
		now:       now,
		logger:    logger,
	}
}

// Run sweeps immediately, then on every tick until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce generates instances for every studio over the configured
// horizon.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	studios, err := s.studios.ListStudios(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "generation sweep could not list studios", "error", err)
		return
	}

	from := s.now().UTC()
	to := from.Add(s.horizon)
	for _, studio := range studios {
		created, err := s.schedules.GenerateForStudio(ctx, studio, from, to)
		if err != nil {
			s.logger.ErrorContext(ctx, "generation sweep failed for studio",
				"studio_id", studio.ID,
				"studio_slug", studio.Slug,
				"error", err,
			)
			continue
		}
		if created > 0 {
			s.logger.InfoContext(ctx, "generation sweep created instances",
				"studio_id", studio.ID,
				"created", created,
			)
		}
	}
}
