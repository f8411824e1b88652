package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/backend/internal/config"
	"github.com/pricewatch/backend/internal/model"
)

type MockAlertRepo struct {
	mock.Mock
}

func (m *MockAlertRepo) Upsert(ctx context.Context, alert *model.Alert) (model.UpsertResult, error) {
	args := m.Called(ctx, alert)
	return args.Get(0).(model.UpsertResult), args.Error(1)
}

func (m *MockAlertRepo) DeleteForProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAlertRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockAlertRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.AlertView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AlertView), args.Error(1)
}

func (m *MockAlertRepo) MarkSeen(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, asOf time.Time) (int64, error) {
	args := m.Called(ctx, userID, ids, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepo) CountUnseen(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type recordedRefresh struct {
	trigger string
	failed  bool
}

type fakeRecorder struct {
	mu        sync.Mutex
	refreshes []recordedRefresh
	outcomes  map[string]int
}

func (f *fakeRecorder) ObserveRefresh(trigger string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, recordedRefresh{trigger: trigger, failed: err != nil})
}

func (f *fakeRecorder) AddOutcome(outcome string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = map[string]int{}
	}
	f.outcomes[outcome] += n
}

func trackedProduct(current float64, history ...float64) model.TrackedProduct {
	points := make([]model.PricePoint, len(history))
	for i, p := range history {
		points[i] = model.PricePoint{Price: p, Date: time.Date(2025, 1, i+1, 0, 0, 0, 0, time.UTC)}
	}
	return model.TrackedProduct{
		Product: model.Product{
			ID:        uuid.New(),
			Platforms: model.Platforms{{Name: "Amazon", CurrentPrice: current, History: points}},
		},
		TrackID: uuid.New(),
	}
}

func TestAlertService_Refresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		policy    string
		item      model.TrackedProduct
		setup     func(a *MockAlertRepo, userID uuid.UUID, item model.TrackedProduct)
		want      RefreshResult
		wantError bool
	}{
		{
			name:   "drop at threshold creates alert",
			policy: config.RecoveryRetain,
			item:   trackedProduct(800, 1000, 900),
			setup: func(a *MockAlertRepo, userID uuid.UUID, item model.TrackedProduct) {
				a.On("Upsert", mock.Anything, mock.MatchedBy(func(al *model.Alert) bool {
					return al.UserID == userID &&
						al.ProductID == item.ID &&
						al.CurrentPrice == 800 &&
						al.PreviousHigh == 1000 &&
						al.Message == "Price dropped 20.0% from 1000 to 800."
				})).Return(model.UpsertCreated, nil)
			},
			want: RefreshResult{Evaluated: 1, Created: 1},
		},
		{
			name:   "unchanged drop is a no-op",
			policy: config.RecoveryRetain,
			item:   trackedProduct(500, 1000),
			setup: func(a *MockAlertRepo, _ uuid.UUID, _ model.TrackedProduct) {
				a.On("Upsert", mock.Anything, mock.Anything).Return(model.UpsertUnchanged, nil)
			},
			want: RefreshResult{Evaluated: 1, Unchanged: 1},
		},
		{
			name:   "recovery retains alert",
			policy: config.RecoveryRetain,
			item:   trackedProduct(950, 1000),
			want:   RefreshResult{Evaluated: 1, BelowThreshold: 1},
		},
		{
			name:   "recovery retracts alert",
			policy: config.RecoveryRetract,
			item:   trackedProduct(950, 1000),
			setup: func(a *MockAlertRepo, userID uuid.UUID, item model.TrackedProduct) {
				a.On("DeleteForProduct", mock.Anything, userID, item.ID).Return(true, nil)
			},
			want: RefreshResult{Evaluated: 1, BelowThreshold: 1, Retracted: 1},
		},
		{
			name:   "no history is skipped",
			policy: config.RecoveryRetract,
			item:   trackedProduct(800),
			want:   RefreshResult{Evaluated: 1, Skipped: 1},
		},
		{
			name:   "zero price is skipped",
			policy: config.RecoveryRetract,
			item:   trackedProduct(0, 1000),
			want:   RefreshResult{Evaluated: 1, Skipped: 1},
		},
		{
			name:   "upsert failure is reported",
			policy: config.RecoveryRetain,
			item:   trackedProduct(100, 1000),
			setup: func(a *MockAlertRepo, _ uuid.UUID, _ model.TrackedProduct) {
				a.On("Upsert", mock.Anything, mock.Anything).Return(model.UpsertUnchanged, errors.New("db down"))
			},
			want:      RefreshResult{Evaluated: 1, Failed: 1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			userID := uuid.New()
			alerts := new(MockAlertRepo)
			tracked := new(MockTrackedRepo)
			rec := &fakeRecorder{}
			tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{tt.item}, nil)
			if tt.setup != nil {
				tt.setup(alerts, userID, tt.item)
			}

			svc := NewAlertService(alerts, tracked, config.AlertConfig{DropThreshold: 0.2, RecoveryPolicy: tt.policy}, rec)
			res, err := svc.Refresh(context.Background(), userID)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, res)
			alerts.AssertExpectations(t)
			alerts.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

			require.Len(t, rec.refreshes, 1)
			assert.Equal(t, TriggerRequest, rec.refreshes[0].trigger)
			assert.Equal(t, tt.wantError, rec.refreshes[0].failed)
		})
	}
}

func TestAlertService_Refresh_KeepsGoingAfterFailure(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	first := trackedProduct(100, 1000)
	second := trackedProduct(700, 1000)

	alerts := new(MockAlertRepo)
	tracked := new(MockTrackedRepo)
	tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{first, second}, nil)
	alerts.On("Upsert", mock.Anything, mock.MatchedBy(func(a *model.Alert) bool { return a.ProductID == first.ID })).
		Return(model.UpsertUnchanged, errors.New("deadlock"))
	alerts.On("Upsert", mock.Anything, mock.MatchedBy(func(a *model.Alert) bool { return a.ProductID == second.ID })).
		Return(model.UpsertUpdated, nil)

	svc := NewAlertService(alerts, tracked, config.AlertConfig{}, nil)
	res, err := svc.Refresh(context.Background(), userID)

	assert.ErrorContains(t, err, "deadlock")
	assert.Equal(t, RefreshResult{Evaluated: 2, Updated: 1, Failed: 1}, res)
}

func TestAlertService_Refresh_CoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	alerts := new(MockAlertRepo)
	tracked := new(MockTrackedRepo)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	tracked.On("ListByUser", mock.Anything, userID).
		Run(func(mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return([]model.TrackedProduct{}, nil)

	svc := NewAlertService(alerts, tracked, config.AlertConfig{}, nil)

	const callers = 5
	var wg sync.WaitGroup
	wg.Add(callers)
	go func() {
		defer wg.Done()
		_, _ = svc.Refresh(context.Background(), userID)
	}()
	<-started
	for i := 1; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, _ = svc.Refresh(context.Background(), userID)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	tracked.AssertNumberOfCalls(t, "ListByUser", 1)
}

func TestAlertService_Refresh_CallerCancellation(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tracked := new(MockTrackedRepo)
	release := make(chan struct{})
	done := make(chan struct{})
	tracked.On("ListByUser", mock.Anything, userID).
		Run(func(args mock.Arguments) {
			<-release
			assert.NoError(t, args.Get(0).(context.Context).Err())
			close(done)
		}).
		Return([]model.TrackedProduct{}, nil)

	svc := NewAlertService(new(MockAlertRepo), tracked, config.AlertConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Refresh(ctx, userID)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-done
}

func TestAlertService_List(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	seenID := uuid.New()
	unseenID := uuid.New()
	listedAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	stored := []model.AlertView{
		{Alert: model.Alert{ID: unseenID, UserID: userID, Seen: false, UpdatedAt: listedAt}},
		{Alert: model.Alert{ID: seenID, UserID: userID, Seen: true, UpdatedAt: listedAt.Add(time.Hour)}},
	}

	t.Run("returns pre-mark state and marks only unseen", func(t *testing.T) {
		t.Parallel()
		alerts := new(MockAlertRepo)
		tracked := new(MockTrackedRepo)
		tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{}, nil)
		alerts.On("ListByUser", mock.Anything, userID).Return(stored, nil)
		alerts.On("MarkSeen", mock.Anything, userID, []uuid.UUID{unseenID}, listedAt).Return(int64(1), nil)

		got, err := NewAlertService(alerts, tracked, config.AlertConfig{}, nil).List(context.Background(), userID)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.False(t, got[0].Seen)
		assert.True(t, got[1].Seen)
		alerts.AssertExpectations(t)
	})

	t.Run("marks up to the newest listed unseen alert", func(t *testing.T) {
		t.Parallel()
		older, newer := uuid.New(), uuid.New()
		alerts := new(MockAlertRepo)
		tracked := new(MockTrackedRepo)
		tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{}, nil)
		alerts.On("ListByUser", mock.Anything, userID).Return([]model.AlertView{
			{Alert: model.Alert{ID: newer, UserID: userID, UpdatedAt: listedAt.Add(2 * time.Minute)}},
			{Alert: model.Alert{ID: older, UserID: userID, UpdatedAt: listedAt}},
		}, nil)
		alerts.On("MarkSeen", mock.Anything, userID, []uuid.UUID{newer, older}, listedAt.Add(2*time.Minute)).Return(int64(2), nil)

		_, err := NewAlertService(alerts, tracked, config.AlertConfig{}, nil).List(context.Background(), userID)

		require.NoError(t, err)
		alerts.AssertExpectations(t)
	})

	t.Run("refresh failure still lists", func(t *testing.T) {
		t.Parallel()
		alerts := new(MockAlertRepo)
		tracked := new(MockTrackedRepo)
		tracked.On("ListByUser", mock.Anything, userID).Return(nil, errors.New("db down"))
		alerts.On("ListByUser", mock.Anything, userID).Return([]model.AlertView{}, nil)

		got, err := NewAlertService(alerts, tracked, config.AlertConfig{}, nil).List(context.Background(), userID)

		require.NoError(t, err)
		assert.Empty(t, got)
		alerts.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("list failure", func(t *testing.T) {
		t.Parallel()
		alerts := new(MockAlertRepo)
		tracked := new(MockTrackedRepo)
		tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{}, nil)
		alerts.On("ListByUser", mock.Anything, userID).Return(nil, errors.New("db down"))

		_, err := NewAlertService(alerts, tracked, config.AlertConfig{}, nil).List(context.Background(), userID)

		assert.Error(t, err)
	})
}

func TestAlertService_UnreadCount(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	item := trackedProduct(700, 1000)
	alerts := new(MockAlertRepo)
	tracked := new(MockTrackedRepo)
	tracked.On("ListByUser", mock.Anything, userID).Return([]model.TrackedProduct{item}, nil)
	alerts.On("Upsert", mock.Anything, mock.Anything).Return(model.UpsertCreated, nil)
	alerts.On("CountUnseen", mock.Anything, userID).Return(1, nil)

	n, err := NewAlertService(alerts, tracked, config.AlertConfig{}, nil).UnreadCount(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	alerts.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAlertService_RefreshAll(t *testing.T) {
	t.Parallel()

	ok := uuid.New()
	broken := uuid.New()
	alerts := new(MockAlertRepo)
	tracked := new(MockTrackedRepo)
	rec := &fakeRecorder{}

	tracked.On("UserIDs", mock.Anything).Return([]uuid.UUID{ok, broken}, nil)
	tracked.On("ListByUser", mock.Anything, ok).Return([]model.TrackedProduct{trackedProduct(700, 1000), trackedProduct(990, 1000)}, nil)
	tracked.On("ListByUser", mock.Anything, broken).Return(nil, errors.New("timeout"))
	alerts.On("Upsert", mock.Anything, mock.Anything).Return(model.UpsertCreated, nil)

	res, err := NewAlertService(alerts, tracked, config.AlertConfig{}, rec).RefreshAll(context.Background())

	assert.ErrorContains(t, err, broken.String())
	assert.Equal(t, RefreshResult{Evaluated: 2, Created: 1, BelowThreshold: 1}, res)
	require.Len(t, rec.refreshes, 2)
	assert.Equal(t, TriggerSchedule, rec.refreshes[0].trigger)
	assert.Equal(t, 1, rec.outcomes["created"])
	assert.Equal(t, 1, rec.outcomes["below_threshold"])
}

func TestAlertService_Dismiss(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	userID := uuid.New()
	alerts := new(MockAlertRepo)
	alerts.On("Delete", mock.Anything, id, userID).Return(nil)

	require.NoError(t, NewAlertService(alerts, new(MockTrackedRepo), config.AlertConfig{}, nil).Dismiss(context.Background(), id, userID))
	alerts.AssertExpectations(t)
}
