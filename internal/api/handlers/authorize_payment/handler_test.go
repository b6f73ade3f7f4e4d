package authorize_payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

type serviceFunc func(ctx context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error)

func (f serviceFunc) Authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error) {
	return f(ctx, req)
}

func serve(h *Handler, bookingID uuid.UUID, body, key string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/bookings/{bookingId}/payment/authorize", h.Handle).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payment/authorize", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 7, Role: domain.RoleCustomer}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_EmptyBodyUsesDefaultProvider(t *testing.T) {
	bookingID := uuid.New()
	paymentID := uuid.New()

	h := NewHandler(serviceFunc(func(_ context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error) {
		assert.Equal(t, bookingID, req.BookingID)
		assert.Empty(t, req.Provider)
		require.NotNil(t, req.IdempotencyKey)
		assert.Equal(t, "auth-1", *req.IdempotencyKey)
		return &models.PaymentResult{
			Booking: &domain.Booking{ID: bookingID, Status: domain.BookingPendingPayment},
			Payment: &domain.Payment{ID: paymentID, BookingID: bookingID, Provider: domain.ProviderManual, Status: domain.PaymentAuthorized},
		}, nil
	}), logger.NewNop())

	rec := serve(h, bookingID, "", "auth-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PaymentResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, paymentID, resp.Payment.ID)
	assert.Equal(t, "AUTHORIZED", resp.Payment.Status)
}

func TestHandle_Errors(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "unknown provider", err: payments.ErrUnknownProvider, status: http.StatusBadRequest, code: handlers.CodeInvalidInput},
		{name: "not found", err: payments.ErrBookingNotFound, status: http.StatusNotFound, code: handlers.CodeNotFound},
		{name: "access denied", err: payments.ErrAccessDenied, status: http.StatusForbidden, code: handlers.CodeForbidden},
		{name: "window elapsed", err: payments.ErrPaymentWindowElapsed, status: http.StatusConflict, code: handlers.CodePaymentWindowElapsed},
		{
			name:   "already captured",
			err:    domain.NewStateError("payment", uuid.New(), domain.PaymentCaptured, "authorize"),
			status: http.StatusConflict,
			code:   handlers.CodeInvalidState,
		},
		{name: "provider declined", err: fmt.Errorf("%w: card declined", payments.ErrProviderFailed), status: http.StatusBadGateway, code: handlers.CodeProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(serviceFunc(func(context.Context, *models.AuthorizeRequest) (*models.PaymentResult, error) {
				return nil, tt.err
			}), logger.NewNop())

			rec := serve(h, bookingID, `{"provider":"manual"}`, "")
			require.Equal(t, tt.status, rec.Code)

			var resp handlers.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
