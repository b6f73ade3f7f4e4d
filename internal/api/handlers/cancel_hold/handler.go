package cancel_hold

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	cancelHold "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_hold"
)

const (
	msgMissingUser   = "требуется аутентификация"
	msgInvalidHoldID = "некорректный ID холда"
	msgNotFound      = "холд не найден"
	msgForbidden     = "холд принадлежит другому пользователю"
	msgHoldExpired   = "холд истек"
	msgCannotCancel  = "холд не может быть отменен"
)

// HoldResponse HTTP response model
type HoldResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt string    `json:"expiresAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type Handler struct {
	useCase CancelHoldUseCase
	logger  Logger
}

func NewHandler(useCase CancelHoldUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/holds/{holdId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	holdID, err := handlers.PathUUID(r, "holdId")
	if err != nil {
		h.logger.Warn("PATCH /holds/{id}/cancel - Invalid hold ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidHoldID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &cancelHold.Request{UserID: actor.UserID, HoldID: holdID})
	if err != nil {
		switch {
		case errors.Is(err, cancelHold.ErrHoldNotFound):
			h.logger.Warn("PATCH /holds/{id}/cancel - Hold not found: hold_id=%s", holdID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelHold.ErrNotOwner):
			h.logger.Warn("PATCH /holds/{id}/cancel - Not owner: hold_id=%s, user_id=%d", holdID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrHoldExpired):
			h.logger.Warn("PATCH /holds/{id}/cancel - Hold expired: hold_id=%s", holdID)
			handlers.RespondConflict(w, msgHoldExpired, err)

		case errors.Is(err, domain.ErrInvalidState):
			h.logger.Warn("PATCH /holds/{id}/cancel - Cannot cancel: %v", err)
			handlers.RespondConflict(w, msgCannotCancel, err)

		default:
			h.logger.Error("PATCH /holds/{id}/cancel - Failed to cancel hold: hold_id=%s, error=%v", holdID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /holds/{id}/cancel - Hold cancelled: hold_id=%s, user_id=%d", holdID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, &HoldResponse{
		ID:        result.ID,
		Status:    string(result.Status),
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
		UpdatedAt: result.UpdatedAt.Format(time.RFC3339),
	})
}
