package complete_booking

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Request модель запроса на завершение проживания
type Request struct {
	Actor     domain.Actor
	BookingID uuid.UUID
}

// Response завершенное бронирование
type Response struct {
	Booking *domain.Booking
	Reused  bool
}
