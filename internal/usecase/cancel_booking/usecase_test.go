package cancel_booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
	"github.com/m04kA/SMC-StayBookingService/pkg/metrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/ptr"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

const (
	customerID int64 = 1
	vendorID   int64 = 500
	adminID    int64 = 900
)

type fixture struct {
	store     *memstore.Store
	clock     *clock.Manual
	uc        *UseCase
	property  domain.Property
	bookingID uuid.UUID
}

// newFixture создает бронирование на 2 ночи с суммой 1000 и заездом через checkInAfter
func newFixture(t *testing.T, checkInAfter time.Duration, status domain.BookingStatus) *fixture {
	t.Helper()

	store := memstore.New()
	property := domain.Property{ID: uuid.New(), VendorID: vendorID, NightlyRate: 500, Currency: "EUR", MinNights: 1}
	store.AddProperty(property)

	checkIn := testNow.Add(checkInAfter)
	bookingID := uuid.New()
	store.PutBooking(domain.Booking{
		ID:          bookingID,
		CustomerID:  customerID,
		PropertyID:  property.ID,
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, 2),
		Nights:      2,
		TotalAmount: 1000,
		Currency:    "EUR",
		Status:      status,
		ExpiresAt:   testNow.Add(15 * time.Minute),
		CreatedAt:   testNow.Add(-time.Hour),
	})

	clk := clock.NewManual(testNow)
	log := logger.NewNop()
	policies := policy.NewService(store.PolicyRepo(), store.Properties(), store, log)
	uc := NewUseCase(
		store.BookingRepo(),
		store.Properties(),
		store.Locks(),
		policies,
		store.CancellationRepo(),
		store.PaymentRepo(),
		store.RefundRepo(),
		store.OutboxRepo(),
		store,
		clk,
		(*metrics.Metrics)(nil),
		log,
	)
	return &fixture{store: store, clock: clk, uc: uc, property: property, bookingID: bookingID}
}

func (f *fixture) capturedPayment() domain.Payment {
	p := domain.Payment{
		ID:          uuid.New(),
		BookingID:   f.bookingID,
		Provider:    domain.ProviderManual,
		Status:      domain.PaymentCaptured,
		Amount:      1000,
		Currency:    "EUR",
		ProviderRef: ptr.Ptr("manual_auth_1"),
	}
	f.store.PutPayment(p)
	return p
}

func customerRequest(bookingID uuid.UUID) *Request {
	return &Request{
		Actor:     domain.Actor{UserID: customerID, Role: domain.RoleCustomer},
		BookingID: bookingID,
		Reason:    domain.ReasonChangeOfPlans,
	}
}

func TestExecute_PartialRefundCreatesRefund(t *testing.T) {
	f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
	payment := f.capturedPayment()

	resp, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)
	assert.False(t, resp.Reused)

	c := resp.Cancellation
	assert.Equal(t, domain.TierPartial, c.Tier)
	assert.Equal(t, int64(500), c.PenaltyAmount)
	assert.Equal(t, int64(500), c.RefundableAmount)
	assert.Equal(t, domain.ModeSoft, c.Mode)
	assert.True(t, c.ReleasesInventory)

	require.NotNil(t, resp.Refund)
	assert.Equal(t, domain.RefundPending, resp.Refund.Status)
	assert.Equal(t, int64(500), resp.Refund.Amount)
	assert.Equal(t, payment.ID, resp.Refund.PaymentID)
	require.NotNil(t, c.RefundID)
	assert.Equal(t, resp.Refund.ID, *c.RefundID)

	b, _ := f.store.Booking(f.bookingID)
	assert.Equal(t, domain.BookingCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, testNow, *b.CancelledAt)
	require.NotNil(t, b.CancelledBy)
	assert.Equal(t, customerID, *b.CancelledBy)

	assert.Equal(t, []domain.EventType{domain.EventBookingCancelled}, f.store.OutboxTypes(domain.TopicNotifications))
	assert.Equal(t, []domain.EventType{domain.EventBookingCancelled}, f.store.OutboxTypes(domain.TopicOps))
}

func TestExecute_LateCancelNoRefund(t *testing.T) {
	f := newFixture(t, 10*time.Hour, domain.BookingConfirmed)
	f.capturedPayment()

	resp, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)

	assert.Equal(t, domain.TierNoRefund, resp.Cancellation.Tier)
	assert.Equal(t, int64(1000), resp.Cancellation.PenaltyAmount)
	assert.Equal(t, int64(0), resp.Cancellation.RefundableAmount)
	assert.Nil(t, resp.Refund)
	assert.Empty(t, f.store.Refunds())
}

func TestExecute_UnpaidBookingHasNoRefund(t *testing.T) {
	f := newFixture(t, 100*time.Hour, domain.BookingPendingPayment)

	resp, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, resp.Cancellation.Tier)
	assert.Equal(t, int64(1000), resp.Cancellation.RefundableAmount)
	assert.Nil(t, resp.Refund)
}

func TestExecute_UsesPropertyPolicyVersion(t *testing.T) {
	f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
	propertyID := f.property.ID
	f.store.PutPolicy(domain.CancellationPolicy{
		ID:                       uuid.New(),
		PropertyID:               &propertyID,
		Version:                  3,
		FreeCancelBeforeHours:    24,
		PartialRefundBeforeHours: 12,
		PenaltyModel:             domain.PenaltyNone,
		DefaultMode:              domain.ModeSoft,
		IsActive:                 true,
		UpdatedAt:                testNow,
	})

	resp, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Cancellation.PolicyVersion)
	assert.Equal(t, domain.TierFree, resp.Cancellation.Tier)
}

func TestExecute_ReplayReturnsStoredDecision(t *testing.T) {
	f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
	f.capturedPayment()

	first, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)

	f.clock.Advance(40 * time.Hour)
	second, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.Cancellation.ID, second.Cancellation.ID)
	assert.Equal(t, first.Cancellation.Tier, second.Cancellation.Tier)
	require.NotNil(t, second.Refund)
	assert.Equal(t, first.Refund.ID, second.Refund.ID)
	assert.Len(t, f.store.Refunds(), 1)
	assert.Len(t, f.store.OutboxTypes(domain.TopicNotifications), 1)
}

func TestExecute_HardReasonForcesHardMode(t *testing.T) {
	f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)

	soft := domain.ModeSoft
	resp, err := f.uc.Execute(context.Background(), &Request{
		Actor:     domain.Actor{UserID: adminID, Role: domain.RoleAdmin},
		BookingID: f.bookingID,
		Reason:    domain.ReasonFraud,
		Mode:      &soft,
		Notes:     ptr.Ptr("  chargeback pattern  "),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeHard, resp.Cancellation.Mode)
	require.NotNil(t, resp.Cancellation.Notes)
	assert.Equal(t, "chargeback pattern", *resp.Cancellation.Notes)
	assert.Equal(t, domain.RoleAdmin, resp.Cancellation.ActorRole)
}

func TestExecute_Authorization(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		reason  domain.CancellationReason
		wantErr error
	}{
		{"other customer", domain.Actor{UserID: 2, Role: domain.RoleCustomer}, domain.ReasonChangeOfPlans, domain.ErrForbidden},
		{"other vendor", domain.Actor{UserID: 501, Role: domain.RoleVendor}, domain.ReasonMaintenance, domain.ErrForbidden},
		{"owner vendor", domain.Actor{UserID: vendorID, Role: domain.RoleVendor}, domain.ReasonMaintenance, nil},
		{"admin", domain.Actor{UserID: adminID, Role: domain.RoleAdmin}, domain.ReasonOther, nil},
		{"customer with admin reason", domain.Actor{UserID: customerID, Role: domain.RoleCustomer}, domain.ReasonFraud, domain.ErrInvalidInput},
		{"vendor with customer reason", domain.Actor{UserID: vendorID, Role: domain.RoleVendor}, domain.ReasonChangeOfPlans, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
			_, err := f.uc.Execute(context.Background(), &Request{Actor: tt.actor, BookingID: f.bookingID, Reason: tt.reason})
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			b, _ := f.store.Booking(f.bookingID)
			assert.Equal(t, domain.BookingConfirmed, b.Status)
		})
	}
}

func TestExecute_StateRejections(t *testing.T) {
	t.Run("completed booking", func(t *testing.T) {
		f := newFixture(t, 48*time.Hour, domain.BookingCompleted)
		_, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("after check-in", func(t *testing.T) {
		f := newFixture(t, -2*time.Hour, domain.BookingConfirmed)
		_, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
		require.ErrorIs(t, err, domain.ErrCancellationWindowClosed)

		b, _ := f.store.Booking(f.bookingID)
		assert.Equal(t, domain.BookingConfirmed, b.Status)
	})

	t.Run("capture in flight", func(t *testing.T) {
		f := newFixture(t, 48*time.Hour, domain.BookingPendingPayment)
		payment := domain.Payment{ID: uuid.New(), BookingID: f.bookingID, Provider: domain.ProviderManual,
			Status: domain.PaymentAuthorized, Amount: 1000, Currency: "EUR"}
		f.store.PutPayment(payment)
		_, _, err := f.store.PaymentRepo().InsertEventOrGet(context.Background(), &domain.PaymentEvent{
			ID:             uuid.New(),
			PaymentID:      payment.ID,
			EventType:      domain.EventCapture,
			IdempotencyKey: "capture:" + f.bookingID.String(),
			Status:         domain.EventPending,
			Amount:         1000,
		})
		require.NoError(t, err)

		_, err = f.uc.Execute(context.Background(), customerRequest(f.bookingID))
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
		_, err := f.uc.Execute(context.Background(), customerRequest(uuid.New()))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestExecute_FailureRollsBackEverything(t *testing.T) {
	f := newFixture(t, 48*time.Hour, domain.BookingConfirmed)
	f.capturedPayment()
	f.store.FailOn("outbox.Enqueue", assert.AnError)

	_, err := f.uc.Execute(context.Background(), customerRequest(f.bookingID))
	require.ErrorIs(t, err, ErrInternal)

	b, _ := f.store.Booking(f.bookingID)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Empty(t, f.store.Refunds())
	_, ok := f.store.Cancellation(f.bookingID)
	assert.False(t, ok)
}
