package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment единственный платеж бронирования
type Payment struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	Provider    string
	Status      PaymentStatus
	Amount      int64
	Currency    string
	ProviderRef *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentEvent запись журнала платежных операций.
// Уникальность (PaymentID, EventType, IdempotencyKey) является механизмом дедупликации.
type PaymentEvent struct {
	ID             uuid.UUID
	PaymentID      uuid.UUID
	EventType      PaymentEventType
	IdempotencyKey string
	Status         PaymentEventStatus
	Amount         int64
	RefundID       *uuid.UUID
	ProviderRef    *string
	Error          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderKey ключ идемпотентности, передаваемый провайдеру
func (e *PaymentEvent) ProviderKey() string {
	return e.PaymentID.String() + ":" + string(e.EventType) + ":" + e.IdempotencyKey
}

// Refund возврат, созданный при отмене бронирования
type Refund struct {
	ID                uuid.UUID
	BookingID         uuid.UUID
	PaymentID         uuid.UUID
	Amount            int64 // сумма, рассчитанная политикой
	ProcessedAmount   *int64
	Currency          string
	Provider          string
	Status            RefundStatus
	ProviderRefundRef *string
	ProcessedBy       *int64
	FailureReason     *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
