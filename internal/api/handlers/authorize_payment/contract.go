package authorize_payment

import (
	"context"

	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

type PaymentService interface {
	Authorize(ctx context.Context, req *models.AuthorizeRequest) (*models.PaymentResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
