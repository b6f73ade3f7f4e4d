package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// AuthorizeRequest запрос на авторизацию платежа бронирования
type AuthorizeRequest struct {
	Actor          domain.Actor
	BookingID      uuid.UUID
	Provider       string // пустая строка означает manual
	IdempotencyKey *string
}

// CaptureRequest запрос на списание авторизованного платежа
type CaptureRequest struct {
	Actor          domain.Actor
	BookingID      uuid.UUID
	IdempotencyKey *string
}

// RefundRequest запрос на проведение возврата
type RefundRequest struct {
	Actor          domain.Actor
	RefundID       uuid.UUID
	IdempotencyKey *string
	AmountOverride *int64
}

// PaymentResult состояние платежа и бронирования после операции
type PaymentResult struct {
	Booking *domain.Booking
	Payment *domain.Payment
	Event   *domain.PaymentEvent
	Reused  bool
}

// RefundResult состояние возврата и платежа после операции
type RefundResult struct {
	Refund  *domain.Refund
	Payment *domain.Payment
	Event   *domain.PaymentEvent
	Reused  bool
}

// DefaultKey ключ идемпотентности, если клиент его не передал
func DefaultKey(eventType domain.PaymentEventType, id uuid.UUID) string {
	switch eventType {
	case domain.EventAuthorize:
		return "authorize:" + id.String()
	case domain.EventCapture:
		return "capture:" + id.String()
	default:
		return "refund:" + id.String()
	}
}

// Response модели

// PaymentResponse ответ с данными платежа
type PaymentResponse struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"bookingId"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	ProviderRef *string   `json:"providerRef,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RefundResponse ответ с данными возврата
type RefundResponse struct {
	ID                uuid.UUID `json:"id"`
	BookingID         uuid.UUID `json:"bookingId"`
	PaymentID         uuid.UUID `json:"paymentId"`
	Amount            int64     `json:"amount"`
	ProcessedAmount   *int64    `json:"processedAmount,omitempty"`
	Currency          string    `json:"currency"`
	Provider          string    `json:"provider"`
	Status            string    `json:"status"`
	ProviderRefundRef *string   `json:"providerRefundRef,omitempty"`
	FailureReason     *string   `json:"failureReason,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FromDomainPayment конвертирует domain модель в DTO
func FromDomainPayment(p *domain.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		Provider:    p.Provider,
		Status:      string(p.Status),
		Amount:      p.Amount,
		Currency:    p.Currency,
		ProviderRef: p.ProviderRef,
		UpdatedAt:   p.UpdatedAt,
	}
}

// FromDomainRefund конвертирует domain модель в DTO
func FromDomainRefund(r *domain.Refund) *RefundResponse {
	if r == nil {
		return nil
	}
	return &RefundResponse{
		ID:                r.ID,
		BookingID:         r.BookingID,
		PaymentID:         r.PaymentID,
		Amount:            r.Amount,
		ProcessedAmount:   r.ProcessedAmount,
		Currency:          r.Currency,
		Provider:          r.Provider,
		Status:            string(r.Status),
		ProviderRefundRef: r.ProviderRefundRef,
		FailureReason:     r.FailureReason,
		UpdatedAt:         r.UpdatedAt,
	}
}
