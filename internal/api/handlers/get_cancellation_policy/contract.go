package get_cancellation_policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
)

type PolicyService interface {
	GetForProperty(ctx context.Context, propertyID uuid.UUID) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
