package get_cancellation_quote

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings"
)

const (
	msgMissingUser      = "требуется аутентификация"
	msgInvalidBookingID = "некорректный ID бронирования"
	msgInvalidMode      = "некорректный режим отмены"
	msgNotFound         = "бронирование не найдено"
	msgForbidden        = "доступ запрещен"
	msgCannotCancel     = "бронирование не может быть отменено"
	msgWindowClosed     = "отмена после времени заезда невозможна"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/{bookingId}/cancellation-quote
// Query params: mode (SOFT | HARD, опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("GET /bookings/{id}/cancellation-quote - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var mode *string
	if m := r.URL.Query().Get("mode"); m != "" {
		mode = &m
	}

	result, err := h.service.CancellationQuote(r.Context(), actor, bookingID, mode)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /bookings/{id}/cancellation-quote - Invalid mode: %v", err)
			handlers.RespondBadRequest(w, msgInvalidMode)

		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("GET /bookings/{id}/cancellation-quote - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /bookings/{id}/cancellation-quote - Access denied: booking_id=%s, user_id=%d",
				bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrCancellationWindowClosed):
			h.logger.Warn("GET /bookings/{id}/cancellation-quote - Window closed: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgWindowClosed, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("GET /bookings/{id}/cancellation-quote - Cannot cancel: %v", err)
			handlers.RespondConflict(w, msgCannotCancel, err)

		default:
			h.logger.Error("GET /bookings/{id}/cancellation-quote - Failed to quote: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{id}/cancellation-quote - Quote ready: booking_id=%s, tier=%s", bookingID, result.Tier)
	handlers.RespondJSON(w, http.StatusOK, result)
}
