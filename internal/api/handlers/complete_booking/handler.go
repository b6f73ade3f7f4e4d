package complete_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	completeBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/complete_booking"
)

const (
	msgMissingUser      = "требуется аутентификация"
	msgInvalidBookingID = "некорректный ID бронирования"
	msgAdminOnly        = "завершить проживание может только администратор"
	msgNotFound         = "бронирование не найдено"
	msgInvalidState     = "завершить можно только подтвержденное бронирование"
)

// CompleteBookingResponse HTTP response model
type CompleteBookingResponse struct {
	Booking *models.BookingResponse `json:"booking"`
	Reused  bool                    `json:"reused"`
}

type Handler struct {
	useCase CompleteBookingUseCase
	logger  Logger
}

func NewHandler(useCase CompleteBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/internal/bookings/{bookingId}/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /internal/bookings/{id}/complete - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &completeBooking.Request{Actor: actor, BookingID: bookingID})
	if err != nil {
		switch {
		case errors.Is(err, completeBooking.ErrInvalidInput):
			h.logger.Warn("POST /internal/bookings/{id}/complete - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidBookingID)

		case errors.Is(err, completeBooking.ErrAdminOnly):
			h.logger.Warn("POST /internal/bookings/{id}/complete - Admin only: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgAdminOnly)

		case errors.Is(err, completeBooking.ErrBookingNotFound):
			h.logger.Warn("POST /internal/bookings/{id}/complete - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("POST /internal/bookings/{id}/complete - Invalid state: %v", err)
			handlers.RespondConflict(w, msgInvalidState, err)

		default:
			h.logger.Error("POST /internal/bookings/{id}/complete - Failed to complete booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /internal/bookings/{id}/complete - Booking completed: booking_id=%s, reused=%t", bookingID, result.Reused)
	handlers.RespondJSON(w, http.StatusOK, &CompleteBookingResponse{
		Booking: models.FromDomainBooking(result.Booking),
		Reused:  result.Reused,
	})
}
