package authorize_payment

import (
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingModels "github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// AuthorizePaymentRequest HTTP request model, тело необязательно
type AuthorizePaymentRequest struct {
	Provider string `json:"provider,omitempty" validate:"omitempty,max=64"`
}

// PaymentResultResponse HTTP response model
type PaymentResultResponse struct {
	Booking *bookingModels.BookingResponse `json:"booking"`
	Payment *models.PaymentResponse        `json:"payment"`
	Reused  bool                           `json:"reused"`
}

func (r *AuthorizePaymentRequest) ToServiceRequest(actor domain.Actor, bookingID uuid.UUID, key *string) *models.AuthorizeRequest {
	return &models.AuthorizeRequest{
		Actor:          actor,
		BookingID:      bookingID,
		Provider:       strings.ToLower(strings.TrimSpace(r.Provider)),
		IdempotencyKey: key,
	}
}

// FromServiceResult конвертирует результат сервиса в HTTP response
func FromServiceResult(res *models.PaymentResult) *PaymentResultResponse {
	return &PaymentResultResponse{
		Booking: bookingModels.FromDomainBooking(res.Booking),
		Payment: models.FromDomainPayment(res.Payment),
		Reused:  res.Reused,
	}
}
