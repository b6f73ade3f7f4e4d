package process_refund

import (
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// ProcessRefundRequest HTTP request model, тело необязательно
type ProcessRefundRequest struct {
	AmountOverride *int64 `json:"amountOverride,omitempty" validate:"omitempty,gt=0"`
}

// RefundResultResponse HTTP response model
type RefundResultResponse struct {
	Refund  *models.RefundResponse  `json:"refund"`
	Payment *models.PaymentResponse `json:"payment"`
	Reused  bool                    `json:"reused"`
}

func FromServiceResult(res *models.RefundResult) *RefundResultResponse {
	return &RefundResultResponse{
		Refund:  models.FromDomainRefund(res.Refund),
		Payment: models.FromDomainPayment(res.Payment),
		Reused:  res.Reused,
	}
}
