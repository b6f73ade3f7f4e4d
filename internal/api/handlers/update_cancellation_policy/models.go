package update_cancellation_policy

import (
	"strings"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
)

// UpdatePolicyRequest HTTP request model
type UpdatePolicyRequest struct {
	FreeCancelBeforeHours        int    `json:"freeCancelBeforeHours" validate:"gte=0"`
	PartialRefundBeforeHours     int    `json:"partialRefundBeforeHours" validate:"gte=0"`
	NoRefundWithinHours          int    `json:"noRefundWithinHours" validate:"gte=0"`
	PenaltyModel                 string `json:"penaltyModel" validate:"required"`
	PenaltyValue                 int64  `json:"penaltyValue" validate:"gte=0"`
	DefaultMode                  string `json:"defaultMode,omitempty"`
	ChargeFirstNightOnLateCancel bool   `json:"chargeFirstNightOnLateCancel"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса.
// Согласованность порогов проверяет доменная политика
func (r *UpdatePolicyRequest) ToServiceRequest() *models.UpdatePolicyRequest {
	return &models.UpdatePolicyRequest{
		FreeCancelBeforeHours:        r.FreeCancelBeforeHours,
		PartialRefundBeforeHours:     r.PartialRefundBeforeHours,
		NoRefundWithinHours:          r.NoRefundWithinHours,
		PenaltyModel:                 domain.PenaltyModel(strings.ToUpper(strings.TrimSpace(r.PenaltyModel))),
		PenaltyValue:                 r.PenaltyValue,
		DefaultMode:                  domain.CancellationMode(strings.ToUpper(strings.TrimSpace(r.DefaultMode))),
		ChargeFirstNightOnLateCancel: r.ChargeFirstNightOnLateCancel,
	}
}
