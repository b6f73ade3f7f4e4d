package update_cancellation_policy

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
)

const (
	msgMissingUser        = "требуется аутентификация"
	msgInvalidPropertyID  = "некорректный ID объекта размещения"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidPolicy      = "некорректные параметры политики отмены"
	msgPropertyNotFound   = "объект размещения не найден"
	msgForbidden          = "нет прав на изменение политики отмены"
)

type Handler struct {
	service PolicyService
	logger  Logger
}

func NewHandler(service PolicyService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/properties/{propertyId}/cancellation-policy
// и PUT /api/v1/cancellation-policy (глобальная политика, только администратор)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUser)
		return
	}

	var req UpdatePolicyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT cancellation-policy - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		h.logger.Warn("PUT cancellation-policy - Validation failed: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPolicy)
		return
	}

	var (
		result *models.PolicyResponse
		err    error
	)
	if _, scoped := mux.Vars(r)["propertyId"]; scoped {
		propertyID, perr := handlers.PathUUID(r, "propertyId")
		if perr != nil {
			h.logger.Warn("PUT /properties/{id}/cancellation-policy - Invalid property ID: %v", perr)
			handlers.RespondBadRequest(w, msgInvalidPropertyID)
			return
		}
		result, err = h.service.UpdateForProperty(r.Context(), actor, propertyID, req.ToServiceRequest())
	} else {
		result, err = h.service.UpdateGlobal(r.Context(), actor, req.ToServiceRequest())
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.logger.Warn("PUT cancellation-policy - Invalid policy: %v", err)
			handlers.RespondError(w, http.StatusBadRequest, handlers.CodeInvalidInput, msgInvalidPolicy,
				map[string]interface{}{"reason": err.Error()})

		case errors.Is(err, policy.ErrPropertyNotFound):
			h.logger.Warn("PUT cancellation-policy - Property not found: %v", err)
			handlers.RespondNotFound(w, msgPropertyNotFound)

		case errors.Is(err, policy.ErrAccessDenied):
			h.logger.Warn("PUT cancellation-policy - Access denied: user_id=%d, role=%s", actor.UserID, actor.Role)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("PUT cancellation-policy - Failed to update policy: user_id=%d, error=%v", actor.UserID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT cancellation-policy - Policy updated: scope=%s, version=%d, user_id=%d",
		result.Scope, result.Version, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
