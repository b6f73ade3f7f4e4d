package create_booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/inventory"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
	"github.com/m04kA/SMC-StayBookingService/pkg/metrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/ptr"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	store    *memstore.Store
	clock    *clock.Manual
	uc       *UseCase
	property domain.Property
	holdID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	property := domain.Property{
		ID:                uuid.New(),
		VendorID:          500,
		NightlyRate:       10000,
		CleaningFee:       2500,
		ServiceFeePercent: 10,
		Currency:          "EUR",
		MinNights:         1,
	}
	store.AddProperty(property)

	holdID := uuid.New()
	store.PutHold(domain.Hold{
		ID:          holdID,
		PropertyID:  property.ID,
		CheckIn:     day("2025-06-10"),
		CheckOut:    day("2025-06-13"),
		Status:      domain.HoldActive,
		ExpiresAt:   testNow.Add(10 * time.Minute),
		CreatedByID: 1,
		CreatedAt:   testNow.Add(-5 * time.Minute),
	})

	clk := clock.NewManual(testNow)
	uc := NewUseCase(
		store.BookingRepo(),
		store.HoldRepo(),
		store.Properties(),
		store.Locks(),
		inventory.NewChecker(store.Calendar(), store.BookingRepo(), store.HoldRepo()),
		store.OutboxRepo(),
		store,
		clk,
		15,
		(*metrics.Metrics)(nil),
		logger.NewNop(),
	)
	return &fixture{store: store, clock: clk, uc: uc, property: property, holdID: holdID}
}

func (f *fixture) request() *Request {
	return &Request{UserID: 1, Role: domain.RoleCustomer, HoldID: f.holdID}
}

func TestExecute_ConvertsHold(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.False(t, resp.Reused)

	b := resp.Booking
	assert.Equal(t, domain.BookingPendingPayment, b.Status)
	assert.Equal(t, 3, b.Nights)
	// 3 × 10000 + 2500 уборка + 10% от 30000
	assert.Equal(t, int64(35500), b.TotalAmount)
	assert.Equal(t, "EUR", b.Currency)
	assert.Equal(t, testNow.Add(15*time.Minute), b.ExpiresAt)
	require.NotNil(t, b.HoldID)
	assert.Equal(t, f.holdID, *b.HoldID)

	h, _ := f.store.Hold(f.holdID)
	assert.Equal(t, domain.HoldConverted, h.Status)
	require.NotNil(t, h.BookingID)
	assert.Equal(t, b.ID, *h.BookingID)

	assert.Equal(t, []domain.EventType{domain.EventBookingCreated}, f.store.OutboxTypes(domain.TopicNotifications))
}

func TestExecute_PriceIsTakenAtConversion(t *testing.T) {
	f := newFixture(t)
	f.property.NightlyRate = 20000
	f.store.AddProperty(f.property)

	resp, err := f.uc.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, int64(60000+2500+6000), resp.Booking.TotalAmount)
}

func TestExecute_ExpiredHold(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(10 * time.Minute)

	_, err := f.uc.Execute(context.Background(), f.request())
	require.ErrorIs(t, err, domain.ErrHoldExpired)

	h, _ := f.store.Hold(f.holdID)
	assert.Equal(t, domain.HoldExpired, h.Status)
	assert.Empty(t, f.store.Bookings())
}

func TestExecute_Rejections(t *testing.T) {
	t.Run("vendor cannot book", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.Role = domain.RoleVendor
		_, err := f.uc.Execute(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.UserID = 2
		_, err := f.uc.Execute(context.Background(), req)
		require.ErrorIs(t, err, ErrNotHoldOwner)
	})

	t.Run("hold not found", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.HoldID = uuid.New()
		_, err := f.uc.Execute(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("cancelled hold", func(t *testing.T) {
		f := newFixture(t)
		h, _ := f.store.Hold(f.holdID)
		h.Status = domain.HoldCancelled
		f.store.PutHold(h)

		_, err := f.uc.Execute(context.Background(), f.request())
		var stateErr *domain.StateError
		require.True(t, errors.As(err, &stateErr))
		assert.Equal(t, string(domain.HoldCancelled), stateErr.Status)
	})

	t.Run("blank idempotency key", func(t *testing.T) {
		f := newFixture(t)
		req := f.request()
		req.IdempotencyKey = ptr.Ptr("  ")
		_, err := f.uc.Execute(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestExecute_RevalidatesBlockedDates(t *testing.T) {
	f := newFixture(t)
	f.store.SetCalendarDay(domain.CalendarDay{PropertyID: f.property.ID, Day: day("2025-06-12"), Status: domain.DayBlocked})

	_, err := f.uc.Execute(context.Background(), f.request())
	require.ErrorIs(t, err, domain.ErrBlockedDates)

	h, _ := f.store.Hold(f.holdID)
	assert.Equal(t, domain.HoldActive, h.Status)
	assert.Empty(t, f.store.Bookings())
}

func TestExecute_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.IdempotencyKey = ptr.Ptr("key-1")

	first, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Reused)

	again := f.request()
	again.IdempotencyKey = ptr.Ptr("key-1")
	second, err := f.uc.Execute(context.Background(), again)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)

	assert.Len(t, f.store.Bookings(), 1)
	assert.Len(t, f.store.OutboxTypes(domain.TopicNotifications), 1)
}

func TestExecute_ConcurrentConversionHappensOnce(t *testing.T) {
	f := newFixture(t)

	const workers = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.Execute(context.Background(), f.request())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrInvalidState):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, rejected)
	assert.Len(t, f.store.Bookings(), 1)

	h, _ := f.store.Hold(f.holdID)
	assert.Equal(t, domain.HoldConverted, h.Status)
}

func TestExecute_ConcurrentSameKeyReturnsSameBooking(t *testing.T) {
	f := newFixture(t)

	const workers = 6
	ids := make([]uuid.UUID, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := f.request()
			req.IdempotencyKey = ptr.Ptr("same-key")
			resp, err := f.uc.Execute(context.Background(), req)
			if !assert.NoError(t, err) {
				return
			}
			ids[i] = resp.Booking.ID
		}(i)
	}
	close(start)
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, f.store.Bookings(), 1)
}
