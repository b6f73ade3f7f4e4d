package update_cancellation_policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
)

type PolicyService interface {
	UpdateForProperty(ctx context.Context, actor domain.Actor, propertyID uuid.UUID, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error)
	UpdateGlobal(ctx context.Context, actor domain.Actor, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
