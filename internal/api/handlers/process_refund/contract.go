package process_refund

import (
	"context"

	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

type RefundService interface {
	ProcessRefund(ctx context.Context, req *models.RefundRequest) (*models.RefundResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
