package outboxrelay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/notifier"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/opsgenerator"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
	"github.com/m04kA/SMC-StayBookingService/pkg/metrics"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type sink struct {
	mu        sync.Mutex
	delivered []uuid.UUID
	errs      []error
}

// deliver возвращает заранее заданные ошибки по порядку, затем успех
func (s *sink) deliver(_ context.Context, e *domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return err
		}
	}
	s.delivered = append(s.delivered, e.ID)
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func enqueue(t *testing.T, store *memstore.Store, topic string, at time.Time) *domain.OutboxEvent {
	t.Helper()
	b := &domain.Booking{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		CustomerID:  1,
		CheckIn:     testNow.AddDate(0, 0, 5),
		CheckOut:    testNow.AddDate(0, 0, 7),
		Status:      domain.BookingConfirmed,
		TotalAmount: 1000,
		Currency:    "EUR",
	}
	e, err := domain.NewBookingEvent(topic, domain.EventBookingConfirmed, b, at, nil)
	require.NoError(t, err)
	require.NoError(t, store.OutboxRepo().Enqueue(context.Background(), e))
	return e
}

func newRelay(store *memstore.Store, clk *clock.Manual, routes map[string]DeliverFunc, cfg Config) *Relay {
	return New(store.OutboxRepo(), store, routes, clk, cfg, (*metrics.Metrics)(nil), logger.NewNop())
}

func outboxByID(store *memstore.Store, id uuid.UUID) domain.OutboxEvent {
	for _, e := range store.Outbox() {
		if e.ID == id {
			return e
		}
	}
	return domain.OutboxEvent{}
}

func TestTick_RoutesByTopic(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	notifications, ops := &sink{}, &sink{}

	n := enqueue(t, store, domain.TopicNotifications, testNow)
	o := enqueue(t, store, domain.TopicOps, testNow)
	later := enqueue(t, store, domain.TopicOps, testNow.Add(time.Minute))

	relay := newRelay(store, clk, map[string]DeliverFunc{
		domain.TopicNotifications: notifications.deliver,
		domain.TopicOps:           ops.deliver,
	}, Config{})

	res, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 2}, res)
	assert.Equal(t, []uuid.UUID{n.ID}, notifications.delivered)
	assert.Equal(t, []uuid.UUID{o.ID}, ops.delivered)

	published := outboxByID(store, n.ID)
	assert.Equal(t, domain.OutboxPublished, published.Status)
	assert.Equal(t, 1, published.Attempts)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, testNow, *published.PublishedAt)

	assert.Equal(t, domain.OutboxPending, outboxByID(store, later.ID).Status)

	// опубликованные события не доставляются повторно
	clk.Advance(time.Minute)
	res, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 1}, res)
	assert.Equal(t, 2, ops.count())
}

func TestTick_RetriesWithBackoff(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	ops := &sink{errs: []error{
		fmt.Errorf("%w: status code 503", opsgenerator.ErrUnavailable),
		fmt.Errorf("%w: status code 503", opsgenerator.ErrUnavailable),
	}}
	e := enqueue(t, store, domain.TopicOps, testNow)

	relay := newRelay(store, clk, map[string]DeliverFunc{domain.TopicOps: ops.deliver}, Config{
		BaseBackoff: 10 * time.Second,
		MaxBackoff:  time.Minute,
	})

	res, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Retried: 1}, res)

	stored := outboxByID(store, e.ID)
	assert.Equal(t, domain.OutboxPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, testNow.Add(10*time.Second), stored.AvailableAt)
	require.NotNil(t, stored.LastError)
	assert.Contains(t, *stored.LastError, "503")

	// до окончания задержки событие не выбирается
	res, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	clk.Advance(10 * time.Second)
	res, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Retried: 1}, res)
	stored = outboxByID(store, e.ID)
	assert.Equal(t, 2, stored.Attempts)
	assert.Equal(t, clk.Now().Add(20*time.Second), stored.AvailableAt)

	clk.Advance(20 * time.Second)
	res, err = relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Published: 1}, res)
	stored = outboxByID(store, e.ID)
	assert.Equal(t, domain.OutboxPublished, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.Nil(t, stored.LastError)
}

func TestTick_PermanentFailures(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		err   error
	}{
		{name: "ops rejected", topic: domain.TopicOps, err: fmt.Errorf("%w: status code 422", opsgenerator.ErrRejected)},
		{name: "invalid event", topic: domain.TopicNotifications, err: fmt.Errorf("%w: empty payload", notifier.ErrInvalidEvent)},
		{name: "unknown topic", topic: "billing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			clk := clock.NewManual(testNow)
			target := &sink{errs: []error{tt.err}}
			e := enqueue(t, store, tt.topic, testNow)

			relay := newRelay(store, clk, map[string]DeliverFunc{
				domain.TopicOps:           target.deliver,
				domain.TopicNotifications: target.deliver,
			}, Config{})

			res, err := relay.Tick(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Result{Failed: 1}, res)

			stored := outboxByID(store, e.ID)
			assert.Equal(t, domain.OutboxFailed, stored.Status)
			assert.Equal(t, 1, stored.Attempts)
			require.NotNil(t, stored.LastError)
		})
	}
}

func TestTick_GivesUpAfterMaxAttempts(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	publishErr := fmt.Errorf("%w: broker down", notifier.ErrPublish)
	notifications := &sink{errs: []error{publishErr, publishErr, publishErr}}
	e := enqueue(t, store, domain.TopicNotifications, testNow)

	relay := newRelay(store, clk, map[string]DeliverFunc{domain.TopicNotifications: notifications.deliver}, Config{
		MaxAttempts: 3,
		BaseBackoff: time.Second,
		MaxBackoff:  time.Second,
	})

	for i := 0; i < 2; i++ {
		res, err := relay.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Result{Retried: 1}, res)
		clk.Advance(time.Second)
	}

	res, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Failed: 1}, res)

	stored := outboxByID(store, e.ID)
	assert.Equal(t, domain.OutboxFailed, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.Zero(t, notifications.count())
}

func TestBackoff(t *testing.T) {
	relay := newRelay(memstore.New(), clock.NewManual(testNow), nil, Config{
		BaseBackoff: 5 * time.Second,
		MaxBackoff:  30 * time.Second,
	})

	assert.Equal(t, 5*time.Second, relay.backoff(1))
	assert.Equal(t, 10*time.Second, relay.backoff(2))
	assert.Equal(t, 20*time.Second, relay.backoff(3))
	assert.Equal(t, 30*time.Second, relay.backoff(4))
	assert.Equal(t, 30*time.Second, relay.backoff(20))
}

func TestRun_DeliversUntilCancelled(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	notifications := &sink{}
	for i := 0; i < 3; i++ {
		enqueue(t, store, domain.TopicNotifications, testNow)
	}

	relay := newRelay(store, clk, map[string]DeliverFunc{domain.TopicNotifications: notifications.deliver}, Config{
		Interval:  10 * time.Millisecond,
		BatchSize: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return notifications.count() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}
