package create_booking

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Request модель запроса на создание бронирования из холда
type Request struct {
	UserID         int64
	Role           domain.Role
	HoldID         uuid.UUID
	IdempotencyKey *string // опционально
}

// Response модель ответа с бронированием
type Response struct {
	Booking *domain.Booking
	Reused  bool // true, если вернули ранее созданное бронирование
}
