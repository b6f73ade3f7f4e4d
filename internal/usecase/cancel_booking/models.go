package cancel_booking

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Request модель запроса на отмену бронирования
type Request struct {
	Actor     domain.Actor
	BookingID uuid.UUID
	Reason    domain.CancellationReason
	Mode      *domain.CancellationMode // nil - режим политики
	Notes     *string
}

// Response результат отмены
type Response struct {
	Booking      *domain.Booking
	Cancellation *domain.BookingCancellation
	Refund       *domain.Refund // nil, если возвращать нечего
	Reused       bool           // отмена уже была выполнена ранее
}
