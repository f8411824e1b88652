// Package scheduler runs the background alert refresh on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pricewatch/backend/internal/service"
)

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a standard 5-field cron expression (e.g. "*/30 * * * *").
	// An empty schedule disables the scheduler.
	Schedule string
	// Timeout bounds one complete refresh of every user.
	Timeout time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule: "*/30 * * * *",
		Timeout:  5 * time.Minute,
	}
}

// Refresher re-evaluates the alerts of every user with tracked products.
type Refresher interface {
	RefreshAll(ctx context.Context) (service.RefreshResult, error)
}

// Status is a snapshot of the background refresh, reported by the health check.
type Status struct {
	Enabled   bool       `json:"enabled"`
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

// Scheduler triggers alert refreshes
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	config    Config
	logger    *slog.Logger
	entryID   cron.EntryID

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// New creates a new Scheduler instance
func New(cfg Config, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresher: refresher,
		config:    cfg,
		logger:    logger,
	}
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.config.Schedule != ""
}

// Start begins the scheduler. It is a no-op when no schedule is configured.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("Alert refresh scheduler is disabled, skipping start")
		return nil
	}
	if s.refresher == nil {
		return errors.New("scheduler: no refresher configured")
	}

	// Prefix "0" for the seconds field.
	schedule := "0 " + s.config.Schedule

	entryID, err := s.cron.AddFunc(schedule, s.runRefreshJob)
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()

	s.logger.Info("Alert refresh scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
	)

	return nil
}

// Stop stops the scheduler. The returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping alert refresh scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate refresh in the background. It is skipped
// when a refresh is already in progress.
func (s *Scheduler) RunNow() {
	go s.runRefreshJob()
}

func (s *Scheduler) runRefreshJob() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Debug("Alert refresh already in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Debug("Starting scheduled alert refresh")

	res, err := s.refresher.RefreshAll(ctx)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.running = false
	s.lastRun = startTime
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled alert refresh finished with errors",
			slog.String("error", err.Error()),
			slog.Int("evaluated", res.Evaluated),
			slog.Int("failed", res.Failed),
			slog.Duration("duration", duration),
		)
		return
	}

	s.logger.Info("Scheduled alert refresh completed",
		slog.Int("evaluated", res.Evaluated),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("retracted", res.Retracted),
		slog.Duration("duration", duration),
	)
}

// Status reports whether a refresh is in progress, when the last one
// started and when the next is due.
func (s *Scheduler) Status() Status {
	st := Status{Enabled: s.Enabled()}
	if s.entryID != 0 {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Running = s.running
	if !s.lastRun.IsZero() {
		last := s.lastRun
		st.LastRun = &last
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
