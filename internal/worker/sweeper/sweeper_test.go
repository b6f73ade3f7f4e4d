package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
	"github.com/m04kA/SMC-StayBookingService/pkg/metrics"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSweeper(store *memstore.Store, clk *clock.Manual, batch int) *Sweeper {
	return New(
		store.BookingRepo(),
		store.HoldRepo(),
		store.OutboxRepo(),
		store,
		clk,
		Config{Interval: time.Minute, BatchSize: batch},
		(*metrics.Metrics)(nil),
		logger.NewNop(),
	)
}

func pendingBooking(store *memstore.Store, expiresAt time.Time) domain.Booking {
	checkIn := testNow.AddDate(0, 0, 7)
	b := domain.Booking{
		ID:          uuid.New(),
		CustomerID:  1,
		PropertyID:  uuid.New(),
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, 2),
		Nights:      2,
		TotalAmount: 1000,
		Currency:    "EUR",
		Status:      domain.BookingPendingPayment,
		ExpiresAt:   expiresAt,
	}
	store.PutBooking(b)
	return b
}

func activeHold(store *memstore.Store, expiresAt time.Time) domain.Hold {
	checkIn := testNow.AddDate(0, 0, 3)
	h := domain.Hold{
		ID:          uuid.New(),
		PropertyID:  uuid.New(),
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, 2),
		Status:      domain.HoldActive,
		ExpiresAt:   expiresAt,
		CreatedByID: 1,
	}
	store.PutHold(h)
	return h
}

func TestTick_ExpiresBookingsAndHolds(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)

	due := pendingBooking(store, testNow)
	open := pendingBooking(store, testNow.Add(time.Minute))
	stale := activeHold(store, testNow.Add(-time.Second))
	live := activeHold(store, testNow.Add(time.Minute))

	res := newSweeper(store, clk, 10).Tick(context.Background())
	assert.Equal(t, Result{Bookings: 1, Holds: 1}, res)

	b, _ := store.Booking(due.ID)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, testNow, *b.CancelledAt)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, string(domain.ReasonPaymentExpired), *b.CancellationReason)
	assert.Nil(t, b.CancelledBy)

	b, _ = store.Booking(open.ID)
	assert.Equal(t, domain.BookingPendingPayment, b.Status)

	h, _ := store.Hold(stale.ID)
	assert.Equal(t, domain.HoldExpired, h.Status)
	h, _ = store.Hold(live.ID)
	assert.Equal(t, domain.HoldActive, h.Status)

	assert.Equal(t, []domain.EventType{domain.EventBookingExpired}, store.OutboxTypes(domain.TopicNotifications))
	assert.Equal(t, []domain.EventType{domain.EventBookingExpired}, store.OutboxTypes(domain.TopicOps))
}

func TestTick_SkipsBookingWithCaptureInFlight(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)

	b := pendingBooking(store, testNow.Add(-time.Minute))
	payment := domain.Payment{ID: uuid.New(), BookingID: b.ID, Provider: domain.ProviderManual, Status: domain.PaymentAuthorized, Amount: 1000, Currency: "EUR"}
	store.PutPayment(payment)
	_, _, err := store.PaymentRepo().InsertEventOrGet(context.Background(), &domain.PaymentEvent{
		ID:             uuid.New(),
		PaymentID:      payment.ID,
		EventType:      domain.EventCapture,
		IdempotencyKey: "capture:" + b.ID.String(),
		Status:         domain.EventPending,
		Amount:         1000,
	})
	require.NoError(t, err)

	res := newSweeper(store, clk, 10).Tick(context.Background())
	assert.Zero(t, res.Bookings)

	stored, _ := store.Booking(b.ID)
	assert.Equal(t, domain.BookingPendingPayment, stored.Status)
}

func TestTick_ProcessesSeveralBatches(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	for i := 0; i < 5; i++ {
		pendingBooking(store, testNow.Add(-time.Duration(i)*time.Minute))
	}

	res := newSweeper(store, clk, 2).Tick(context.Background())
	assert.Equal(t, 5, res.Bookings)
	assert.Len(t, store.OutboxTypes(domain.TopicOps), 5)
}

func TestTick_ContinuesAfterErrors(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	b := pendingBooking(store, testNow)
	h := activeHold(store, testNow)
	sw := newSweeper(store, clk, 10)

	store.FailOn("outbox.Enqueue", errors.New("outbox unavailable"))
	res := sw.Tick(context.Background())
	assert.Zero(t, res.Bookings)
	assert.Equal(t, 1, res.Holds)

	stored, _ := store.Booking(b.ID)
	assert.Equal(t, domain.BookingPendingPayment, stored.Status)
	hold, _ := store.Hold(h.ID)
	assert.Equal(t, domain.HoldExpired, hold.Status)

	res = sw.Tick(context.Background())
	assert.Equal(t, 1, res.Bookings)
	stored, _ = store.Booking(b.ID)
	assert.Equal(t, domain.BookingCancelled, stored.Status)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memstore.New()
	clk := clock.NewManual(testNow)
	activeHold(store, testNow)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newSweeper(store, clk, 10).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, h := range store.Holds() {
			if h.Status != domain.HoldExpired {
				return false
			}
		}
		return true
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
