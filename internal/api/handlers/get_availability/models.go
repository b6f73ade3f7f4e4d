package get_availability

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-StayBookingService/internal/usecase/get_availability"
)

// NightResponse состояние ночи
type NightResponse struct {
	Date      string  `json:"date"`
	State     string  `json:"state"`
	MinNights int     `json:"minNights"`
	Note      *string `json:"note,omitempty"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	PropertyID uuid.UUID       `json:"propertyId"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Nights     []NightResponse `json:"nights"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	nights := make([]NightResponse, 0, len(resp.Nights))
	for _, n := range resp.Nights {
		nights = append(nights, NightResponse{
			Date:      n.Date.Format(domain.DateFormat),
			State:     string(n.State),
			MinNights: n.MinNights,
			Note:      n.Note,
		})
	}
	return &AvailabilityResponse{
		PropertyID: resp.PropertyID,
		From:       resp.From.Format(domain.DateFormat),
		To:         resp.To.Format(domain.DateFormat),
		Nights:     nights,
	}
}
