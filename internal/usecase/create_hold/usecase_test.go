package create_hold

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
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	property := domain.Property{
		ID:          uuid.New(),
		VendorID:    500,
		Title:       "Loft",
		NightlyRate: 10000,
		Currency:    "EUR",
		MinNights:   1,
	}
	store.AddProperty(property)

	clk := clock.NewManual(testNow)
	checker := inventory.NewChecker(store.Calendar(), store.BookingRepo(), store.HoldRepo())
	uc := NewUseCase(
		store.Properties(),
		store.HoldRepo(),
		store.Locks(),
		checker,
		store.OutboxRepo(),
		store,
		clk,
		DefaultSettings(),
		(*metrics.Metrics)(nil),
		logger.NewNop(),
	)
	return &fixture{store: store, clock: clk, uc: uc, property: property}
}

func (f *fixture) request(checkIn, checkOut string) *Request {
	return &Request{
		UserID:     1,
		Role:       domain.RoleCustomer,
		PropertyID: f.property.ID,
		CheckIn:    day(checkIn),
		CheckOut:   day(checkOut),
	}
}

func TestExecute_CreatesActiveHold(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.NoError(t, err)

	assert.Equal(t, domain.HoldActive, resp.Status)
	assert.Equal(t, 3, resp.Nights)
	assert.Equal(t, testNow.Add(15*time.Minute), resp.ExpiresAt)

	stored, ok := f.store.Hold(resp.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1), stored.CreatedByID)
	assert.Equal(t, []domain.EventType{domain.EventHoldCreated}, f.store.OutboxTypes(domain.TopicNotifications))
	assert.Equal(t, 1, f.store.Stats().Locks)
}

func TestExecute_CustomTTL(t *testing.T) {
	f := newFixture(t)
	req := f.request("2025-06-10", "2025-06-12")
	req.TTLMinutes = 30

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(30*time.Minute), resp.ExpiresAt)
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"ttl too small", func(r *Request) { r.TTLMinutes = 4 }, domain.ErrInvalidInput},
		{"ttl too large", func(r *Request) { r.TTLMinutes = 61 }, domain.ErrInvalidInput},
		{"checkout before checkin", func(r *Request) { r.CheckOut = day("2025-06-09") }, domain.ErrInvalidRange},
		{"same day", func(r *Request) { r.CheckOut = r.CheckIn }, domain.ErrInvalidRange},
		{"checkin in the past", func(r *Request) { r.CheckIn = day("2025-05-30") }, domain.ErrInvalidRange},
		{"too long", func(r *Request) { r.CheckOut = r.CheckIn.AddDate(0, 0, 91) }, domain.ErrInvalidRange},
		{"vendor cannot hold", func(r *Request) { r.Role = domain.RoleVendor }, domain.ErrForbidden},
		{"missing property", func(r *Request) { r.PropertyID = uuid.Nil }, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request("2025-06-10", "2025-06-12")
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.Holds())
		})
	}
}

func TestExecute_PropertyNotFound(t *testing.T) {
	f := newFixture(t)
	req := f.request("2025-06-10", "2025-06-12")
	req.PropertyID = uuid.New()

	_, err := f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrPropertyNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecute_BlockedDates(t *testing.T) {
	f := newFixture(t)
	f.store.SetCalendarDay(domain.CalendarDay{PropertyID: f.property.ID, Day: day("2025-06-11"), Status: domain.DayBlocked})

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.ErrorIs(t, err, domain.ErrBlockedDates)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []time.Time{day("2025-06-11")}, conflict.Nights)
	assert.Empty(t, f.store.Holds())
	assert.Empty(t, f.store.Outbox())
}

func TestExecute_MinimumStay(t *testing.T) {
	f := newFixture(t)
	override := 3
	f.store.SetCalendarDay(domain.CalendarDay{
		PropertyID:        f.property.ID,
		Day:               day("2025-06-10"),
		Status:            domain.DayAvailable,
		MinNightsOverride: &override,
	})

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-12"))
	require.ErrorIs(t, err, domain.ErrMinimumStayNotMet)

	_, err = f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.NoError(t, err)
}

func TestExecute_OverlapWithBooking(t *testing.T) {
	f := newFixture(t)
	bookingID := uuid.New()
	f.store.PutBooking(domain.Booking{
		ID:         bookingID,
		CustomerID: 9,
		PropertyID: f.property.ID,
		CheckIn:    day("2025-06-12"),
		CheckOut:   day("2025-06-15"),
		Status:     domain.BookingConfirmed,
	})

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.ErrorIs(t, err, domain.ErrDatesUnavailable)

	var conflict *domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	require.NotNil(t, conflict.ConflictingID)
	assert.Equal(t, bookingID, *conflict.ConflictingID)

	// выезд в день заезда другого бронирования не пересекается
	_, err = f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-12"))
	require.NoError(t, err)
}

func TestExecute_CancelledBookingDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.store.PutBooking(domain.Booking{
		ID:         uuid.New(),
		CustomerID: 9,
		PropertyID: f.property.ID,
		CheckIn:    day("2025-06-10"),
		CheckOut:   day("2025-06-13"),
		Status:     domain.BookingCancelled,
	})

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.NoError(t, err)
}

func TestExecute_LiveHoldContends(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.NoError(t, err)

	other := f.request("2025-06-12", "2025-06-14")
	other.UserID = 2
	_, err = f.uc.Execute(context.Background(), other)
	require.ErrorIs(t, err, domain.ErrDatesContended)
}

func TestExecute_ExpiredHoldDoesNotBlock(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.NoError(t, err)

	// ровно в момент expiresAt холд уже считается истекшим
	f.clock.Set(first.ExpiresAt)

	other := f.request("2025-06-10", "2025-06-13")
	other.UserID = 2
	_, err = f.uc.Execute(context.Background(), other)
	require.NoError(t, err)
}

func TestExecute_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		contended int
	)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			<-start

			req := f.request("2025-06-10", "2025-06-13")
			req.UserID = userID
			_, err := f.uc.Execute(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrDatesContended):
				contended++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, contended)
	assert.Len(t, f.store.Holds(), 1)
}

func TestExecute_FailedEnqueueRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("outbox.Enqueue", errors.New("disk full"))

	_, err := f.uc.Execute(context.Background(), f.request("2025-06-10", "2025-06-13"))
	require.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, f.store.Holds())
}
