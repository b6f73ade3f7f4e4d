package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-StayBookingService/internal/usecase/get_availability"
)

const (
	msgInvalidPropertyID = "некорректный ID объекта размещения"
	msgInvalidDates      = "параметры from и to обязательны в формате YYYY-MM-DD"
	msgInvalidWindow     = "некорректное окно дат"
	msgPropertyNotFound  = "объект размещения не найден"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/properties/{propertyId}/availability?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	propertyID, err := handlers.PathUUID(r, "propertyId")
	if err != nil {
		h.logger.Warn("GET /properties/{id}/availability - Invalid property ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPropertyID)
		return
	}

	query := r.URL.Query()
	from, errFrom := time.Parse(domain.DateFormat, query.Get("from"))
	to, errTo := time.Parse(domain.DateFormat, query.Get("to"))
	if errFrom != nil || errTo != nil {
		h.logger.Warn("GET /properties/{id}/availability - Invalid dates: from=%q, to=%q",
			query.Get("from"), query.Get("to"))
		handlers.RespondBadRequest(w, msgInvalidDates)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		PropertyID: propertyID,
		From:       from,
		To:         to,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRange):
			h.logger.Warn("GET /properties/{id}/availability - Invalid range: %v", err)
			handlers.RespondUnprocessable(w, msgInvalidWindow, err)

		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /properties/{id}/availability - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindow)

		case errors.Is(err, getAvailability.ErrPropertyNotFound):
			h.logger.Warn("GET /properties/{id}/availability - Property not found: property_id=%s", propertyID)
			handlers.RespondNotFound(w, msgPropertyNotFound)

		default:
			h.logger.Error("GET /properties/{id}/availability - Failed to get availability: property_id=%s, error=%v",
				propertyID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
