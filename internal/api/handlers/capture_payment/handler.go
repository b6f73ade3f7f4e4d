package capture_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

const (
	msgMissingUser      = "требуется аутентификация"
	msgInvalidBookingID = "некорректный ID бронирования"
	msgInvalidInput     = "некорректные параметры запроса"
	msgNotFound         = "бронирование не найдено"
	msgForbidden        = "доступ запрещен"
	msgWindowElapsed    = "окно оплаты истекло, бронирование отменено"
	msgInvalidState     = "платеж не может быть списан в текущем состоянии"
	msgProviderFailed   = "платежный провайдер отклонил списание"
)

type Handler struct {
	service PaymentService
	logger  Logger
}

func NewHandler(service PaymentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/payment/capture
// Успешное списание подтверждает бронирование
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/payment/capture - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	result, err := h.service.Capture(r.Context(), &models.CaptureRequest{
		Actor:          actor,
		BookingID:      bookingID,
		IdempotencyKey: handlers.IdempotencyKey(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, payments.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, payments.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Access denied: booking_id=%s, user_id=%d",
				bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrPaymentWindowElapsed):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Payment window elapsed: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgWindowElapsed, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Invalid state: %v", err)
			handlers.RespondConflict(w, msgInvalidState, err)

		case errors.Is(err, domain.ErrProvider):
			h.logger.Warn("POST /bookings/{id}/payment/capture - Provider failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadGateway(w, msgProviderFailed)

		default:
			h.logger.Error("POST /bookings/{id}/payment/capture - Failed to capture: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/payment/capture - Payment captured: booking_id=%s, status=%s, reused=%t",
		bookingID, result.Booking.Status, result.Reused)
	handlers.RespondJSON(w, http.StatusOK, FromServiceResult(result))
}
