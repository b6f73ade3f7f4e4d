package capture_payment

import (
	"context"

	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

type PaymentService interface {
	Capture(ctx context.Context, req *models.CaptureRequest) (*models.PaymentResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
