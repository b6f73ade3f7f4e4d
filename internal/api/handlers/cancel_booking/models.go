package cancel_booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingModels "github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	paymentModels "github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
	cancelBooking "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_booking"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason string  `json:"reason" validate:"required"`
	Mode   *string `json:"mode,omitempty" validate:"omitempty,oneof=SOFT HARD soft hard"`
	Notes  *string `json:"notes,omitempty"`
}

// CancellationResponse снимок решения об отмене
type CancellationResponse struct {
	ID                uuid.UUID  `json:"id"`
	Reason            string     `json:"reason"`
	Notes             *string    `json:"notes,omitempty"`
	ActorID           int64      `json:"actorId"`
	ActorRole         string     `json:"actorRole"`
	Mode              string     `json:"mode"`
	Tier              string     `json:"tier"`
	PolicyVersion     int        `json:"policyVersion"`
	TotalAmount       int64      `json:"totalAmount"`
	PenaltyAmount     int64      `json:"penaltyAmount"`
	RefundableAmount  int64      `json:"refundableAmount"`
	Currency          string     `json:"currency"`
	ReleasesInventory bool       `json:"releasesInventory"`
	RefundID          *uuid.UUID `json:"refundId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// CancelBookingResponse HTTP response model
type CancelBookingResponse struct {
	Booking      *bookingModels.BookingResponse `json:"booking"`
	Cancellation *CancellationResponse          `json:"cancellation"`
	Refund       *paymentModels.RefundResponse  `json:"refund,omitempty"`
	Reused       bool                           `json:"reused"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CancelBookingRequest) ToUseCaseRequest(actor domain.Actor, bookingID uuid.UUID) *cancelBooking.Request {
	req := &cancelBooking.Request{
		Actor:     actor,
		BookingID: bookingID,
		Reason:    domain.CancellationReason(strings.ToUpper(strings.TrimSpace(r.Reason))),
		Notes:     r.Notes,
	}
	if r.Mode != nil {
		mode := domain.CancellationMode(strings.ToUpper(*r.Mode))
		req.Mode = &mode
	}
	return req
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelBooking.Response) *CancelBookingResponse {
	c := resp.Cancellation
	return &CancelBookingResponse{
		Booking: bookingModels.FromDomainBooking(resp.Booking),
		Cancellation: &CancellationResponse{
			ID:                c.ID,
			Reason:            string(c.Reason),
			Notes:             c.Notes,
			ActorID:           c.ActorID,
			ActorRole:         string(c.ActorRole),
			Mode:              string(c.Mode),
			Tier:              string(c.Tier),
			PolicyVersion:     c.PolicyVersion,
			TotalAmount:       c.TotalAmount,
			PenaltyAmount:     c.PenaltyAmount,
			RefundableAmount:  c.RefundableAmount,
			Currency:          c.Currency,
			ReleasesInventory: c.ReleasesInventory,
			RefundID:          c.RefundID,
			CreatedAt:         c.CreatedAt,
		},
		Refund: paymentModels.FromDomainRefund(resp.Refund),
		Reused: resp.Reused,
	}
}
