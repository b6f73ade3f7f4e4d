package cancel_hold

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

func setup(t *testing.T, status domain.HoldStatus, expiresAt time.Time) (*memstore.Store, *UseCase, uuid.UUID) {
	t.Helper()

	store := memstore.New()
	holdID := uuid.New()
	store.PutHold(domain.Hold{
		ID:          holdID,
		PropertyID:  uuid.New(),
		CheckIn:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:    time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Status:      status,
		ExpiresAt:   expiresAt,
		CreatedByID: 1,
		CreatedAt:   testNow.Add(-time.Minute),
	})
	uc := NewUseCase(store.HoldRepo(), store, clock.NewManual(testNow), logger.NewNop())
	return store, uc, holdID
}

func TestExecute_CancelsActiveHold(t *testing.T) {
	store, uc, holdID := setup(t, domain.HoldActive, testNow.Add(10*time.Minute))

	resp, err := uc.Execute(context.Background(), &Request{UserID: 1, HoldID: holdID})
	require.NoError(t, err)
	assert.Equal(t, domain.HoldCancelled, resp.Status)

	h, _ := store.Hold(holdID)
	assert.Equal(t, domain.HoldCancelled, h.Status)

	// повтор идемпотентен
	resp, err = uc.Execute(context.Background(), &Request{UserID: 1, HoldID: holdID})
	require.NoError(t, err)
	assert.Equal(t, domain.HoldCancelled, resp.Status)
}

func TestExecute_ExpiredHoldIsStoredExpired(t *testing.T) {
	store, uc, holdID := setup(t, domain.HoldActive, testNow)

	_, err := uc.Execute(context.Background(), &Request{UserID: 1, HoldID: holdID})
	require.ErrorIs(t, err, domain.ErrHoldExpired)

	h, _ := store.Hold(holdID)
	assert.Equal(t, domain.HoldExpired, h.Status)
}

func TestExecute_Rejections(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		_, uc, holdID := setup(t, domain.HoldActive, testNow.Add(time.Minute))
		_, err := uc.Execute(context.Background(), &Request{UserID: 2, HoldID: holdID})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("not found", func(t *testing.T) {
		_, uc, _ := setup(t, domain.HoldActive, testNow.Add(time.Minute))
		_, err := uc.Execute(context.Background(), &Request{UserID: 1, HoldID: uuid.New()})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	for _, status := range []domain.HoldStatus{domain.HoldConverted, domain.HoldExpired} {
		t.Run(string(status), func(t *testing.T) {
			store, uc, holdID := setup(t, status, testNow.Add(time.Minute))
			_, err := uc.Execute(context.Background(), &Request{UserID: 1, HoldID: holdID})
			require.ErrorIs(t, err, domain.ErrInvalidState)

			h, _ := store.Hold(holdID)
			assert.Equal(t, status, h.Status)
		})
	}
}
