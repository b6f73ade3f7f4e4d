package get_cancellation_policy

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
)

const (
	msgInvalidPropertyID = "некорректный ID объекта размещения"
	msgPropertyNotFound  = "объект размещения не найден"
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

// Handle GET /api/v1/properties/{propertyId}/cancellation-policy
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	propertyID, err := handlers.PathUUID(r, "propertyId")
	if err != nil {
		h.logger.Warn("GET /properties/{id}/cancellation-policy - Invalid property ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPropertyID)
		return
	}

	result, err := h.service.GetForProperty(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, policy.ErrPropertyNotFound) {
			h.logger.Warn("GET /properties/{id}/cancellation-policy - Property not found: property_id=%s", propertyID)
			handlers.RespondNotFound(w, msgPropertyNotFound)
			return
		}
		h.logger.Error("GET /properties/{id}/cancellation-policy - Failed to get policy: property_id=%s, error=%v",
			propertyID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
