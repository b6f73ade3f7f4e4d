package authorize_payment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnknownProvider    = "неизвестный платежный провайдер"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgWindowElapsed      = "окно оплаты истекло, бронирование отменено"
	msgInvalidState       = "платеж не может быть авторизован в текущем состоянии"
	msgProviderFailed     = "платежный провайдер отклонил операцию"
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

// Handle POST /api/v1/bookings/{bookingId}/payment/authorize
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/payment/authorize - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req AuthorizePaymentRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/payment/authorize - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /bookings/{id}/payment/authorize - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Authorize(r.Context(), req.ToServiceRequest(actor, bookingID, handlers.IdempotencyKey(r)))
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnknownProvider):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Unknown provider: provider=%s", req.Provider)
			handlers.RespondBadRequest(w, msgUnknownProvider)

		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, payments.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, payments.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Access denied: booking_id=%s, user_id=%d",
				bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrPaymentWindowElapsed):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Payment window elapsed: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgWindowElapsed, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Invalid state: %v", err)
			handlers.RespondConflict(w, msgInvalidState, err)

		case errors.Is(err, domain.ErrProvider):
			h.logger.Warn("POST /bookings/{id}/payment/authorize - Provider failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadGateway(w, msgProviderFailed)

		default:
			h.logger.Error("POST /bookings/{id}/payment/authorize - Failed to authorize: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/payment/authorize - Payment authorized: booking_id=%s, payment_id=%s, reused=%t",
		bookingID, result.Payment.ID, result.Reused)
	handlers.RespondJSON(w, http.StatusOK, FromServiceResult(result))
}
