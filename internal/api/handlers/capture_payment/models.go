package capture_payment

import (
	bookingModels "github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// PaymentResultResponse HTTP response model
type PaymentResultResponse struct {
	Booking *bookingModels.BookingResponse `json:"booking"`
	Payment *models.PaymentResponse        `json:"payment"`
	Reused  bool                           `json:"reused"`
}

func FromServiceResult(res *models.PaymentResult) *PaymentResultResponse {
	return &PaymentResultResponse{
		Booking: bookingModels.FromDomainBooking(res.Booking),
		Payment: models.FromDomainPayment(res.Payment),
		Reused:  res.Reused,
	}
}
