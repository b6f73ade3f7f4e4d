package create_hold

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	createHold "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_hold"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDates       = "некорректный формат дат, ожидается YYYY-MM-DD"
	msgInvalidInput       = "некорректные параметры холда"
	msgInvalidRange       = "некорректный диапазон дат"
	msgMinimumStay        = "не выполнено минимальное число ночей"
	msgForbidden          = "холд может создать только клиент"
	msgPropertyNotFound   = "объект размещения не найден"
	msgBlockedDates       = "в выбранных датах есть закрытые ночи"
	msgDatesUnavailable   = "выбранные даты уже забронированы"
	msgDatesContended     = "выбранные даты временно удерживаются другим пользователем"
)

type Handler struct {
	useCase CreateHoldUseCase
	logger  Logger
}

func NewHandler(useCase CreateHoldUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/holds
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	var req CreateHoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /holds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("POST /holds - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(actor)
	if err != nil {
		h.logger.Warn("POST /holds - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRange):
			h.logger.Warn("POST /holds - Invalid range: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondUnprocessable(w, msgInvalidRange, err)

		case errors.Is(err, domain.ErrMinimumStayNotMet):
			h.logger.Warn("POST /holds - Minimum stay not met: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondUnprocessable(w, msgMinimumStay, err)

		case errors.Is(err, createHold.ErrInvalidInput):
			h.logger.Warn("POST /holds - Invalid input: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, createHold.ErrForbidden):
			h.logger.Warn("POST /holds - Forbidden: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, createHold.ErrPropertyNotFound):
			h.logger.Warn("POST /holds - Property not found: property_id=%s", req.PropertyID)
			handlers.RespondNotFound(w, msgPropertyNotFound)

		case errors.Is(err, domain.ErrBlockedDates):
			h.logger.Warn("POST /holds - Blocked dates: %v", err)
			handlers.RespondConflict(w, msgBlockedDates, err)

		case errors.Is(err, domain.ErrDatesUnavailable):
			h.logger.Warn("POST /holds - Dates unavailable: %v", err)
			handlers.RespondConflict(w, msgDatesUnavailable, err)

		case errors.Is(err, domain.ErrDatesContended):
			h.logger.Warn("POST /holds - Dates contended: %v", err)
			handlers.RespondConflict(w, msgDatesContended, err)

		default:
			h.logger.Error("POST /holds - Failed to create hold: user_id=%d, property_id=%s, error=%v",
				actor.UserID, req.PropertyID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /holds - Hold created successfully: hold_id=%s, user_id=%d, property_id=%s",
		result.ID, actor.UserID, result.PropertyID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
