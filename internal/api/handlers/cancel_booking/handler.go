package cancel_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	cancelBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_booking"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgReasonNotAllowed   = "причина отмены недоступна для вашей роли"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgCannotCancel       = "бронирование не может быть отменено"
	msgWindowClosed       = "отмена после времени заезда невозможна"
)

type Handler struct {
	useCase CancelBookingUseCase
	logger  Logger
}

func NewHandler(useCase CancelBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(actor, bookingID))
	if err != nil {
		switch {
		case errors.Is(err, cancelBooking.ErrReasonNotAllowed):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Reason not allowed: booking_id=%s, role=%s, reason=%s",
				bookingID, actor.Role, req.Reason)
			handlers.RespondBadRequest(w, msgReasonNotAllowed)

		case errors.Is(err, cancelBooking.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, cancelBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelBooking.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Access denied: booking_id=%s, user_id=%d",
				bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrCancellationWindowClosed):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Window closed: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgWindowClosed, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Cannot cancel: %v", err)
			handlers.RespondConflict(w, msgCannotCancel, err)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled: booking_id=%s, user_id=%d, tier=%s, reused=%t",
		bookingID, actor.UserID, result.Cancellation.Tier, result.Reused)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
