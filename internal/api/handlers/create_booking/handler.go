package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	createBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_booking"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные параметры бронирования"
	msgInvalidRange       = "некорректный диапазон дат"
	msgMinimumStay        = "не выполнено минимальное число ночей"
	msgForbidden          = "бронирование может создать только клиент"
	msgNotHoldOwner       = "холд принадлежит другому пользователю"
	msgHoldNotFound       = "холд не найден"
	msgPropertyNotFound   = "объект размещения не найден"
	msgHoldExpired        = "холд истек"
	msgInvalidState       = "холд уже использован или отменен"
	msgBlockedDates       = "в выбранных датах есть закрытые ночи"
	msgDatesUnavailable   = "выбранные даты уже забронированы"
	msgDatesContended     = "выбранные даты удерживает другой запрос"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
// Повтор с тем же Idempotency-Key возвращает ранее созданное бронирование со статусом 200
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /bookings - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(actor, handlers.IdempotencyKey(r))
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRange):
			h.logger.Warn("POST /bookings - Invalid range: hold_id=%s, error=%v", req.HoldID, err)
			handlers.RespondUnprocessable(w, msgInvalidRange, err)

		case errors.Is(err, domain.ErrMinimumStayNotMet):
			h.logger.Warn("POST /bookings - Minimum stay not met: hold_id=%s, error=%v", req.HoldID, err)
			handlers.RespondUnprocessable(w, msgMinimumStay, err)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createBooking.ErrForbidden):
			h.logger.Warn("POST /bookings - Forbidden: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createBooking.ErrNotHoldOwner):
			h.logger.Warn("POST /bookings - Not hold owner: hold_id=%s, user_id=%d", req.HoldID, actor.UserID)
			handlers.RespondForbidden(w, msgNotHoldOwner)

		case errors.Is(err, createBooking.ErrHoldNotFound):
			h.logger.Warn("POST /bookings - Hold not found: hold_id=%s", req.HoldID)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, createBooking.ErrPropertyNotFound):
			h.logger.Warn("POST /bookings - Property not found: hold_id=%s", req.HoldID)
			handlers.RespondNotFound(w, msgPropertyNotFound)

		case errors.Is(err, domain.ErrHoldExpired):
			h.logger.Warn("POST /bookings - Hold expired: hold_id=%s", req.HoldID)
			handlers.RespondConflict(w, msgHoldExpired, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("POST /bookings - Invalid hold state: %v", err)
			handlers.RespondConflict(w, msgInvalidState, err)

		case errors.Is(err, domain.ErrBlockedDates):
			h.logger.Warn("POST /bookings - Blocked dates: %v", err)
			handlers.RespondConflict(w, msgBlockedDates, err)

		case errors.Is(err, domain.ErrDatesUnavailable):
			h.logger.Warn("POST /bookings - Dates unavailable: %v", err)
			handlers.RespondConflict(w, msgDatesUnavailable, err)

		case errors.Is(err, domain.ErrDatesContended):
			h.logger.Warn("POST /bookings - Dates contended: %v", err)
			handlers.RespondConflict(w, msgDatesContended, err)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%d, hold_id=%s, error=%v",
				actor.UserID, req.HoldID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}

	h.logger.Info("POST /bookings - Booking ready: booking_id=%s, user_id=%d, reused=%t",
		result.Booking.ID, actor.UserID, result.Reused)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}
