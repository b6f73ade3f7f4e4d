package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/ptr"
)

var checkIn = time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

var customer = domain.Actor{UserID: 1, Role: domain.RoleCustomer}

func testBooking(total int64, nights int) *domain.Booking {
	return &domain.Booking{
		ID:          uuid.New(),
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDate(0, 0, nights),
		Nights:      nights,
		TotalAmount: total,
		Currency:    "USD",
		Status:      domain.BookingConfirmed,
	}
}

func standardPolicy() *domain.CancellationPolicy {
	return &domain.CancellationPolicy{
		Version:                  3,
		FreeCancelBeforeHours:    72,
		PartialRefundBeforeHours: 24,
		NoRefundWithinHours:      0,
		PenaltyModel:             domain.PenaltyPercentOfTotal,
		PenaltyValue:             50,
		DefaultMode:              domain.ModeSoft,
	}
}

func TestDecide_PartialTier(t *testing.T) {
	now := checkIn.Add(-48 * time.Hour)

	d, err := Decide(now, customer, testBooking(1000, 2), standardPolicy(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.TierPartial, d.Tier)
	assert.Equal(t, int64(500), d.PenaltyAmount)
	assert.Equal(t, int64(500), d.RefundableAmount)
	assert.Equal(t, domain.ModeSoft, d.Mode)
	assert.Equal(t, 3, d.PolicyVersion)
	assert.True(t, d.ReleasesInventory)
	assert.InDelta(t, 48.0, d.HoursToCheckIn, 0.0001)
}

func TestDecide_NoRefundTier(t *testing.T) {
	now := checkIn.Add(-10 * time.Hour)

	d, err := Decide(now, customer, testBooking(1000, 2), standardPolicy(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.TierNoRefund, d.Tier)
	assert.Equal(t, int64(1000), d.PenaltyAmount)
	assert.Equal(t, int64(0), d.RefundableAmount)
}

func TestDecide_FreeTier(t *testing.T) {
	d, err := Decide(checkIn.Add(-72*time.Hour), customer, testBooking(1000, 2), standardPolicy(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.TierFree, d.Tier)
	assert.Zero(t, d.PenaltyAmount)
	assert.Equal(t, int64(1000), d.RefundableAmount)
}

func TestDecide_AfterCheckIn(t *testing.T) {
	_, err := Decide(checkIn.Add(time.Minute), customer, testBooking(1000, 2), standardPolicy(), nil)
	assert.ErrorIs(t, err, domain.ErrCancellationWindowClosed)

	// ровно в момент заезда отмена еще возможна
	d, err := Decide(checkIn, customer, testBooking(1000, 2), standardPolicy(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TierNoRefund, d.Tier)
}

func TestDecide_PenaltyModels(t *testing.T) {
	now := checkIn.Add(-30 * time.Hour)

	tests := []struct {
		name    string
		model   domain.PenaltyModel
		value   int64
		total   int64
		nights  int
		penalty int64
	}{
		{name: "none", model: domain.PenaltyNone, value: 50, total: 1000, nights: 3, penalty: 0},
		{name: "fixed fee", model: domain.PenaltyFixedFee, value: 150, total: 1000, nights: 3, penalty: 150},
		{name: "fixed fee capped", model: domain.PenaltyFixedFee, value: 5000, total: 1000, nights: 3, penalty: 1000},
		{name: "percent of total rounds half up", model: domain.PenaltyPercentOfTotal, value: 25, total: 1002, nights: 3, penalty: 251},
		{name: "percent of nights uses floored share", model: domain.PenaltyPercentOfNights, value: 50, total: 1000, nights: 3, penalty: 500},
		{name: "percent of nights one night", model: domain.PenaltyPercentOfNights, value: 100, total: 1001, nights: 2, penalty: 1000},
		{name: "percent of nights rounds once over floored nights", model: domain.PenaltyPercentOfNights, value: 50, total: 1001, nights: 3, penalty: 500},
		{name: "percent of nights fractional share rounds half up", model: domain.PenaltyPercentOfNights, value: 25, total: 1001, nights: 3, penalty: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := standardPolicy()
			p.PenaltyModel = tt.model
			p.PenaltyValue = tt.value

			d, err := Decide(now, customer, testBooking(tt.total, tt.nights), p, nil)
			require.NoError(t, err)
			assert.Equal(t, domain.TierPartial, d.Tier)
			assert.Equal(t, tt.penalty, d.PenaltyAmount)
			assert.Equal(t, tt.total-tt.penalty, d.RefundableAmount)
		})
	}
}

func TestDecide_ChargeFirstNightOnLateCancel(t *testing.T) {
	p := standardPolicy()
	p.ChargeFirstNightOnLateCancel = true

	d, err := Decide(checkIn.Add(-2*time.Hour), customer, testBooking(1000, 3), p, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.TierNoRefund, d.Tier)
	assert.Equal(t, int64(333), d.PenaltyAmount)
	assert.Equal(t, int64(667), d.RefundableAmount)
}

func TestDecide_RequestedMode(t *testing.T) {
	d, err := Decide(checkIn.Add(-100*time.Hour), customer, testBooking(1000, 2), standardPolicy(), ptr.Ptr(domain.ModeHard))
	require.NoError(t, err)
	assert.Equal(t, domain.ModeHard, d.Mode)
	assert.True(t, d.ReleasesInventory)
}

func TestDecide_NegativeThresholdsClamped(t *testing.T) {
	p := standardPolicy()
	p.FreeCancelBeforeHours = -5
	p.PartialRefundBeforeHours = -10

	d, err := Decide(checkIn.Add(-1*time.Hour), customer, testBooking(1000, 2), p, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, d.Tier)
}

func TestDecide_Deterministic(t *testing.T) {
	now := checkIn.Add(-30 * time.Hour)
	b := testBooking(1234, 4)

	first, err := Decide(now, customer, b, standardPolicy(), nil)
	require.NoError(t, err)
	second, err := Decide(now, customer, b, standardPolicy(), nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecide_PenaltyPlusRefundableEqualsTotal(t *testing.T) {
	models := []domain.PenaltyModel{
		domain.PenaltyNone,
		domain.PenaltyFixedFee,
		domain.PenaltyPercentOfTotal,
		domain.PenaltyPercentOfNights,
	}
	totals := []int64{0, 1, 99, 1000, 12345, 999999}
	hours := []int{0, 1, 23, 24, 47, 71, 72, 500}

	for _, model := range models {
		for value := int64(0); value <= 150; value += 25 {
			for _, total := range totals {
				for nights := 1; nights <= 7; nights += 3 {
					for _, h := range hours {
						for _, firstNight := range []bool{false, true} {
							p := standardPolicy()
							p.PenaltyModel = model
							p.PenaltyValue = value
							p.ChargeFirstNightOnLateCancel = firstNight

							d, err := Decide(checkIn.Add(-time.Duration(h)*time.Hour), customer, testBooking(total, nights), p, nil)
							require.NoError(t, err)

							require.Equal(t, total, d.PenaltyAmount+d.RefundableAmount)
							require.GreaterOrEqual(t, d.PenaltyAmount, int64(0))
							require.LessOrEqual(t, d.PenaltyAmount, total)
							require.GreaterOrEqual(t, d.RefundableAmount, int64(0))
							require.LessOrEqual(t, d.RefundableAmount, total)
						}
					}
				}
			}
		}
	}
}

func TestDecide_SameDecisionForAnyActor(t *testing.T) {
	now := checkIn.Add(-48 * time.Hour)
	b := testBooking(1000, 2)

	byCustomer, err := Decide(now, customer, b, standardPolicy(), nil)
	require.NoError(t, err)
	byAdmin, err := Decide(now, domain.Actor{UserID: 900, Role: domain.RoleAdmin}, b, standardPolicy(), nil)
	require.NoError(t, err)
	assert.Equal(t, byCustomer, byAdmin)
}
