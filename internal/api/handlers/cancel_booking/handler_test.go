package cancel_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	cancelBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_booking"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

type useCaseFunc func(ctx context.Context, req *cancelBooking.Request) (*cancelBooking.Response, error)

func (f useCaseFunc) Execute(ctx context.Context, req *cancelBooking.Request) (*cancelBooking.Response, error) {
	return f(ctx, req)
}

func serve(h *Handler, actor domain.Actor, bookingID string, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/bookings/{bookingId}/cancel", h.Handle).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+bookingID+"/cancel", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_Success(t *testing.T) {
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	bookingID := uuid.New()
	refundID := uuid.New()

	h := NewHandler(useCaseFunc(func(_ context.Context, req *cancelBooking.Request) (*cancelBooking.Response, error) {
		assert.Equal(t, bookingID, req.BookingID)
		assert.Equal(t, domain.CancellationReason("CHANGE_OF_PLANS"), req.Reason)
		require.NotNil(t, req.Mode)
		assert.Equal(t, domain.CancellationMode("HARD"), *req.Mode)

		now := time.Now().UTC()
		return &cancelBooking.Response{
			Booking: &domain.Booking{ID: bookingID, Status: domain.BookingCancelled, Currency: "USD"},
			Cancellation: &domain.BookingCancellation{
				ID:               uuid.New(),
				BookingID:        bookingID,
				Reason:           req.Reason,
				Mode:             *req.Mode,
				Tier:             domain.TierPartial,
				TotalAmount:      30000,
				PenaltyAmount:    15000,
				RefundableAmount: 15000,
				Currency:         "USD",
				RefundID:         &refundID,
				CreatedAt:        now,
			},
			Refund: &domain.Refund{ID: refundID, BookingID: bookingID, Amount: 15000, Currency: "USD", Status: domain.RefundPending},
		}, nil
	}), logger.NewNop())

	rec := serve(h, actor, bookingID.String(), `{"reason":"change_of_plans","mode":"hard"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CancelBookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "CANCELLED", resp.Booking.Status)
	assert.Equal(t, int64(15000), resp.Cancellation.RefundableAmount)
	require.NotNil(t, resp.Refund)
	assert.Equal(t, refundID, resp.Refund.ID)
	assert.False(t, resp.Reused)
}

func TestHandle_Errors(t *testing.T) {
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	bookingID := uuid.New()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "reason not allowed", err: cancelBooking.ErrReasonNotAllowed, status: http.StatusBadRequest},
		{name: "not found", err: cancelBooking.ErrBookingNotFound, status: http.StatusNotFound},
		{name: "access denied", err: cancelBooking.ErrAccessDenied, status: http.StatusForbidden},
		{name: "window closed", err: fmt.Errorf("%w: check-in passed", domain.ErrCancellationWindowClosed), status: http.StatusConflict},
		{name: "already completed", err: domain.NewStateError("booking", bookingID, domain.BookingCompleted, "cancel"), status: http.StatusConflict},
		{name: "internal", err: cancelBooking.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(useCaseFunc(func(context.Context, *cancelBooking.Request) (*cancelBooking.Response, error) {
				return nil, tt.err
			}), logger.NewNop())

			rec := serve(h, actor, bookingID.String(), `{"reason":"CHANGE_OF_PLANS"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandle_InvalidRequest(t *testing.T) {
	h := NewHandler(useCaseFunc(func(context.Context, *cancelBooking.Request) (*cancelBooking.Response, error) {
		t.Fatal("use case must not be called")
		return nil, nil
	}), logger.NewNop())
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}

	assert.Equal(t, http.StatusBadRequest, serve(h, actor, "not-a-uuid", `{"reason":"X"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, actor, uuid.NewString(), `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, actor, uuid.NewString(), `{"reason":"X","mode":"LATER"}`).Code)
}
