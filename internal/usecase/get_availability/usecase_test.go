package get_availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := time.Parse(domain.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExecute_NightStates(t *testing.T) {
	store := memstore.New()
	property := domain.Property{ID: uuid.New(), VendorID: 500, NightlyRate: 100, Currency: "EUR", MinNights: 2}
	store.AddProperty(property)

	override := 4
	note := "renovation"
	store.SetCalendarDay(domain.CalendarDay{PropertyID: property.ID, Day: day("2025-06-10"), Status: domain.DayBlocked, Note: &note})
	store.SetCalendarDay(domain.CalendarDay{PropertyID: property.ID, Day: day("2025-06-14"), Status: domain.DayAvailable, MinNightsOverride: &override})

	store.PutBooking(domain.Booking{ID: uuid.New(), PropertyID: property.ID, CustomerID: 1,
		CheckIn: day("2025-06-11"), CheckOut: day("2025-06-13"), Status: domain.BookingConfirmed})
	store.PutBooking(domain.Booking{ID: uuid.New(), PropertyID: property.ID, CustomerID: 1,
		CheckIn: day("2025-06-13"), CheckOut: day("2025-06-14"), Status: domain.BookingCancelled})
	store.PutHold(domain.Hold{ID: uuid.New(), PropertyID: property.ID, CreatedByID: 2,
		CheckIn: day("2025-06-13"), CheckOut: day("2025-06-14"), Status: domain.HoldActive, ExpiresAt: testNow.Add(time.Minute)})
	// истекший холд не занимает ночь
	store.PutHold(domain.Hold{ID: uuid.New(), PropertyID: property.ID, CreatedByID: 3,
		CheckIn: day("2025-06-14"), CheckOut: day("2025-06-15"), Status: domain.HoldActive, ExpiresAt: testNow})

	uc := NewUseCase(store.Properties(), store.Calendar(), store.BookingRepo(), store.HoldRepo(), store,
		clock.NewManual(testNow), logger.NewNop())

	resp, err := uc.Execute(context.Background(), &Request{PropertyID: property.ID, From: day("2025-06-10"), To: day("2025-06-16")})
	require.NoError(t, err)
	require.Len(t, resp.Nights, 6)

	states := make([]NightState, len(resp.Nights))
	for i, n := range resp.Nights {
		states[i] = n.State
	}
	assert.Equal(t, []NightState{NightBlocked, NightBooked, NightBooked, NightHeld, NightAvailable, NightAvailable}, states)

	require.NotNil(t, resp.Nights[0].Note)
	assert.Equal(t, "renovation", *resp.Nights[0].Note)
	assert.Equal(t, 2, resp.Nights[1].MinNights)
	assert.Equal(t, 4, resp.Nights[4].MinNights)
}

func TestExecute_Validation(t *testing.T) {
	store := memstore.New()
	uc := NewUseCase(store.Properties(), store.Calendar(), store.BookingRepo(), store.HoldRepo(), store,
		clock.NewManual(testNow), logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{PropertyID: uuid.New(), From: day("2025-06-10"), To: day("2025-06-10")})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{PropertyID: uuid.New(), From: day("2025-06-10"), To: day("2026-06-12")})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{PropertyID: uuid.New(), From: day("2025-06-10"), To: day("2025-06-12")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
