package create_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

type useCaseFunc func(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error)

func (f useCaseFunc) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	return f(ctx, req)
}

var customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}

func doRequest(h *Handler, actor *domain.Actor, body string, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_CreatedAndReused(t *testing.T) {
	holdID := uuid.New()
	booking := &domain.Booking{
		ID:         uuid.New(),
		CustomerID: customer.UserID,
		PropertyID: uuid.New(),
		HoldID:     &holdID,
		CheckIn:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 11, 4, 0, 0, 0, 0, time.UTC),
		Nights:     3,
		Currency:   "USD",
		Status:     domain.BookingPendingPayment,
	}

	var gotKey *string
	reused := false
	h := NewHandler(useCaseFunc(func(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
		assert.Equal(t, holdID, req.HoldID)
		assert.Equal(t, customer.UserID, req.UserID)
		gotKey = req.IdempotencyKey
		return &createBooking.Response{Booking: booking, Reused: reused}, nil
	}), logger.NewNop())

	body := `{"holdId":"` + holdID.String() + `","idempotencyKey":"from-body"}`

	rec := doRequest(h, &customer, body, "from-header")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gotKey)
	assert.Equal(t, "from-header", *gotKey)

	var resp models.BookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, booking.ID, resp.ID)
	assert.Equal(t, "2026-11-01", resp.CheckIn)

	reused = true
	rec = doRequest(h, &customer, body, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotKey)
	assert.Equal(t, "from-body", *gotKey)
}

func TestHandle_Errors(t *testing.T) {
	holdID := uuid.New()
	body := `{"holdId":"` + holdID.String() + `"}`

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "hold not found", err: createBooking.ErrHoldNotFound, status: http.StatusNotFound, code: handlers.CodeNotFound},
		{name: "not owner", err: createBooking.ErrNotHoldOwner, status: http.StatusForbidden, code: handlers.CodeForbidden},
		{name: "hold expired", err: domain.ErrHoldExpired, status: http.StatusConflict, code: handlers.CodeHoldExpired},
		{
			name:   "dates unavailable",
			err:    &domain.ConflictError{Reason: domain.ErrDatesUnavailable, PropertyID: uuid.New()},
			status: http.StatusConflict,
			code:   handlers.CodeDatesUnavailable,
		},
		{
			name:   "hold already converted",
			err:    domain.NewStateError("hold", holdID, domain.HoldConverted, "convert"),
			status: http.StatusConflict,
			code:   handlers.CodeInvalidState,
		},
		{name: "internal", err: createBooking.ErrInternal, status: http.StatusInternalServerError, code: handlers.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(useCaseFunc(func(context.Context, *createBooking.Request) (*createBooking.Response, error) {
				return nil, tt.err
			}), logger.NewNop())

			rec := doRequest(h, &customer, body, "")
			require.Equal(t, tt.status, rec.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHandle_BadRequest(t *testing.T) {
	h := NewHandler(useCaseFunc(func(context.Context, *createBooking.Request) (*createBooking.Response, error) {
		t.Fatal("use case must not be called")
		return nil, nil
	}), logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, doRequest(h, nil, `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, &customer, `{"holdId":"nope"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, &customer, `{"holdId":"`+uuid.NewString()+`","extra":1}`, "").Code)
}
