package get_property_bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
)

// ToServiceRequest разбирает query параметры from, to (YYYY-MM-DD) и status
func ToServiceRequest(propertyID uuid.UUID, fromStr, toStr, statusStr string) (*models.GetPropertyBookingsRequest, error) {
	req := &models.GetPropertyBookingsRequest{PropertyID: propertyID}

	if fromStr != "" {
		from, err := time.Parse(domain.DateFormat, fromStr)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}
	if toStr != "" {
		to, err := time.Parse(domain.DateFormat, toStr)
		if err != nil {
			return nil, err
		}
		req.To = &to
	}
	if statusStr != "" {
		req.Status = &statusStr
	}
	return req, nil
}
