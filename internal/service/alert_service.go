package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/logger"
	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/pricing"
)

// Refresh triggers, used as metric labels.
const (
	TriggerRequest  = "request"
	TriggerSchedule = "schedule"
)

// AlertRepositoryInterface defines the contract for alert data access.
// Upsert must be atomic per (user, product).
type AlertRepositoryInterface interface {
	Upsert(ctx context.Context, alert *model.Alert) (model.UpsertResult, error)
	DeleteForProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, asOf time.Time) (int64, error)
	CountUnseen(ctx context.Context, userID uuid.UUID) (int, error)
}

// TrackedSource lists what users track. It is satisfied by the tracked item repository.
type TrackedSource interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TrackedProduct, error)
	UserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// RefreshRecorder receives refresh metrics. *metrics.AlertMetrics implements it.
type RefreshRecorder interface {
	ObserveRefresh(trigger string, d time.Duration, err error)
	AddOutcome(outcome string, n int)
}

// RefreshResult counts what a refresh did, one entry per tracked product.
type RefreshResult struct {
	Evaluated      int `json:"evaluated"`
	Created        int `json:"created"`
	Updated        int `json:"updated"`
	Unchanged      int `json:"unchanged"`
	Retracted      int `json:"retracted"`
	BelowThreshold int `json:"belowThreshold"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
}

func (r *RefreshResult) add(o RefreshResult) {
	r.Evaluated += o.Evaluated
	r.Created += o.Created
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Retracted += o.Retracted
	r.BelowThreshold += o.BelowThreshold
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// AlertService derives drop alerts from the products each user tracks.
type AlertService struct {
	alerts  AlertRepositoryInterface
	tracked TrackedSource
	cfg     config.AlertConfig
	metrics RefreshRecorder
	group   singleflight.Group
}

// NewAlertService creates a new AlertService. recorder may be nil.
func NewAlertService(alerts AlertRepositoryInterface, tracked TrackedSource, cfg config.AlertConfig, recorder RefreshRecorder) *AlertService {
	if cfg.DropThreshold <= 0 {
		cfg.DropThreshold = pricing.DefaultDropThreshold
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = time.Minute
	}
	if cfg.RecoveryPolicy == "" {
		cfg.RecoveryPolicy = config.RecoveryRetain
	}
	return &AlertService{
		alerts:  alerts,
		tracked: tracked,
		cfg:     cfg,
		metrics: recorder,
	}
}

// Refresh re-evaluates every product the user tracks and brings the stored
// alerts in line. Concurrent refreshes of the same user share one run.
// The run is detached from ctx so a caller going away does not abort it
// for the others; the caller itself stops waiting when ctx is done.
func (s *AlertService) Refresh(ctx context.Context, userID uuid.UUID) (RefreshResult, error) {
	return s.refresh(ctx, userID, TriggerRequest)
}

func (s *AlertService) refresh(ctx context.Context, userID uuid.UUID, trigger string) (RefreshResult, error) {
	ch := s.group.DoChan(userID.String(), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()

		start := time.Now()
		res, err := s.evaluate(runCtx, userID)
		s.observe(trigger, time.Since(start), res, err)
		return res, err
	})

	select {
	case r := <-ch:
		res, _ := r.Val.(RefreshResult)
		return res, r.Err
	case <-ctx.Done():
		return RefreshResult{}, ctx.Err()
	}
}

func (s *AlertService) evaluate(ctx context.Context, userID uuid.UUID) (RefreshResult, error) {
	log := logger.FromContext(ctx).With(slog.String("user_id", userID.String()))

	items, err := s.tracked.ListByUser(ctx, userID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("loading tracked products: %w", err)
	}

	var res RefreshResult
	var errs []error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res.Evaluated++

		ev := pricing.EvaluateDrop(item.Platforms, s.cfg.DropThreshold)
		if !ev.Eligible {
			res.Skipped++
			continue
		}

		if !ev.Qualifies {
			res.BelowThreshold++
			if s.cfg.RecoveryPolicy != config.RecoveryRetract {
				continue
			}
			deleted, err := s.alerts.DeleteForProduct(ctx, userID, item.ID)
			if err != nil {
				res.Failed++
				errs = append(errs, fmt.Errorf("retracting alert for product %s: %w", item.ID, err))
				log.Error("alert retraction failed", slog.String("product_id", item.ID.String()), slog.String("error", err.Error()))
				continue
			}
			if deleted {
				res.Retracted++
			}
			continue
		}

		outcome, err := s.alerts.Upsert(ctx, &model.Alert{
			UserID:       userID,
			ProductID:    item.ID,
			DropPercent:  ev.DropPercent,
			CurrentPrice: ev.CurrentBest,
			PreviousHigh: ev.MaxHistorical,
			Message:      pricing.AlertMessage(ev.DropPercent, ev.MaxHistorical, ev.CurrentBest),
		})
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("upserting alert for product %s: %w", item.ID, err))
			log.Error("alert upsert failed", slog.String("product_id", item.ID.String()), slog.String("error", err.Error()))
			continue
		}
		switch outcome {
		case model.UpsertCreated:
			res.Created++
		case model.UpsertUpdated:
			res.Updated++
		default:
			res.Unchanged++
		}
	}

	log.Debug("alerts refreshed",
		slog.Int("evaluated", res.Evaluated),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("retracted", res.Retracted),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
	)
	return res, errors.Join(errs...)
}

func (s *AlertService) observe(trigger string, d time.Duration, res RefreshResult, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRefresh(trigger, d, err)
	s.metrics.AddOutcome("created", res.Created)
	s.metrics.AddOutcome("updated", res.Updated)
	s.metrics.AddOutcome("unchanged", res.Unchanged)
	s.metrics.AddOutcome("retracted", res.Retracted)
	s.metrics.AddOutcome("below_threshold", res.BelowThreshold)
	s.metrics.AddOutcome("skipped", res.Skipped)
	s.metrics.AddOutcome("failed", res.Failed)
}

// RefreshAll refreshes every user that tracks at least one product. It keeps
// going past per-user failures and returns them joined.
func (s *AlertService) RefreshAll(ctx context.Context) (RefreshResult, error) {
	users, err := s.tracked.UserIDs(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("listing users with tracked products: %w", err)
	}

	var total RefreshResult
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.refresh(ctx, userID, TriggerSchedule)
		total.add(res)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}
	return total, errors.Join(errs...)
}

// List refreshes the user's alerts and returns them newest first, as they
// were before this call. The returned unseen alerts are then marked seen.
// A failed refresh still lists what is stored.
func (s *AlertService) List(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error) {
	log := logger.FromContext(ctx)
	if _, err := s.Refresh(ctx, userID); err != nil {
		log.Warn("alert refresh failed before listing", slog.String("error", err.Error()))
	}

	alerts, err := s.alerts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}

	var (
		unseen []uuid.UUID
		asOf   time.Time
	)
	for _, a := range alerts {
		if !a.Seen {
			unseen = append(unseen, a.ID)
			if a.UpdatedAt.After(asOf) {
				asOf = a.UpdatedAt
			}
		}
	}
	if len(unseen) > 0 {
		if _, err := s.alerts.MarkSeen(ctx, userID, unseen, asOf); err != nil {
			log.Error("marking alerts seen failed", slog.Int("count", len(unseen)), slog.String("error", err.Error()))
		}
	}
	return alerts, nil
}

// UnreadCount refreshes the user's alerts and counts the unseen ones. It never
// marks anything seen.
func (s *AlertService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if _, err := s.Refresh(ctx, userID); err != nil {
		logger.FromContext(ctx).Warn("alert refresh failed before counting", slog.String("error", err.Error()))
	}
	n, err := s.alerts.CountUnseen(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unseen alerts: %w", err)
	}
	return n, nil
}

// Dismiss deletes one of the user's alerts.
func (s *AlertService) Dismiss(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.alerts.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("dismissing alert %s: %w", id, err)
	}
	return nil
}
