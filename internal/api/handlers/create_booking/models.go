package create_booking

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	HoldID         string  `json:"holdId" validate:"required,uuid"`
	IdempotencyKey *string `json:"idempotencyKey,omitempty" validate:"omitempty,max=128"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case.
// Заголовок Idempotency-Key имеет приоритет над полем тела.
func (r *CreateBookingRequest) ToUseCaseRequest(actor domain.Actor, headerKey *string) (*createBooking.Request, error) {
	holdID, err := uuid.Parse(r.HoldID)
	if err != nil {
		return nil, err
	}

	key := r.IdempotencyKey
	if headerKey != nil {
		key = headerKey
	}

	return &createBooking.Request{
		UserID:         actor.UserID,
		Role:           actor.Role,
		HoldID:         holdID,
		IdempotencyKey: key,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *models.BookingResponse {
	return models.FromDomainBooking(resp.Booking)
}
