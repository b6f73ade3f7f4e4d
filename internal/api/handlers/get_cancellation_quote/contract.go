package get_cancellation_quote

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
)

type BookingService interface {
	CancellationQuote(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, mode *string) (*models.QuoteResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
