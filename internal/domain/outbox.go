package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Топики исходящих событий
const (
	TopicNotifications = "notifications"
	TopicOps           = "ops"
)

// EventType тип доменного события
type EventType string

const (
	EventHoldCreated       EventType = "HOLD_CREATED"
	EventBookingCreated    EventType = "BOOKING_CREATED"
	EventBookingConfirmed  EventType = "BOOKING_CONFIRMED"
	EventBookingCancelled  EventType = "BOOKING_CANCELLED"
	EventBookingExpired    EventType = "BOOKING_EXPIRED"
	EventBookingCompleted  EventType = "BOOKING_COMPLETED"
	EventPaymentAuthorized EventType = "PAYMENT_AUTHORIZED"
	EventPaymentCaptured   EventType = "PAYMENT_CAPTURED"
	EventRefundSucceeded   EventType = "REFUND_SUCCEEDED"
	EventRefundFailed      EventType = "REFUND_FAILED"
)

// OutboxStatus статус доставки
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxEvent событие, записанное в той же транзакции, что и изменение состояния
type OutboxEvent struct {
	ID          uuid.UUID
	Topic       string
	EventType   EventType
	AggregateID uuid.UUID
	Payload     json.RawMessage
	Status      OutboxStatus
	Attempts    int
	AvailableAt time.Time
	LastError   *string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// BookingEventPayload полезная нагрузка событий бронирования
type BookingEventPayload struct {
	BookingID        uuid.UUID  `json:"bookingId"`
	PropertyID       uuid.UUID  `json:"propertyId"`
	CustomerID       int64      `json:"customerId"`
	CheckIn          string     `json:"checkIn"`
	CheckOut         string     `json:"checkOut"`
	Status           string     `json:"status"`
	TotalAmount      int64      `json:"totalAmount"`
	Currency         string     `json:"currency"`
	RefundableAmount *int64     `json:"refundableAmount,omitempty"`
	RefundID         *uuid.UUID `json:"refundId,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	OccurredAt       time.Time  `json:"occurredAt"`
}

// NewBookingEvent строит событие бронирования для указанного топика
func NewBookingEvent(topic string, eventType EventType, b *Booking, now time.Time, extra func(*BookingEventPayload)) (*OutboxEvent, error) {
	payload := BookingEventPayload{
		BookingID:   b.ID,
		PropertyID:  b.PropertyID,
		CustomerID:  b.CustomerID,
		CheckIn:     b.CheckIn.Format(DateFormat),
		CheckOut:    b.CheckOut.Format(DateFormat),
		Status:      string(b.Status),
		TotalAmount: b.TotalAmount,
		Currency:    b.Currency,
		OccurredAt:  now,
	}
	if extra != nil {
		extra(&payload)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:          uuid.New(),
		Topic:       topic,
		EventType:   eventType,
		AggregateID: b.ID,
		Payload:     raw,
		Status:      OutboxPending,
		AvailableAt: now,
		CreatedAt:   now,
	}, nil
}

// HoldEventPayload полезная нагрузка событий холда
type HoldEventPayload struct {
	HoldID     uuid.UUID `json:"holdId"`
	PropertyID uuid.UUID `json:"propertyId"`
	CustomerID int64     `json:"customerId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	ExpiresAt  time.Time `json:"expiresAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewHoldEvent строит уведомление о созданном холде
func NewHoldEvent(h *Hold, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(HoldEventPayload{
		HoldID:     h.ID,
		PropertyID: h.PropertyID,
		CustomerID: h.CreatedByID,
		CheckIn:    h.CheckIn.Format(DateFormat),
		CheckOut:   h.CheckOut.Format(DateFormat),
		ExpiresAt:  h.ExpiresAt,
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:          uuid.New(),
		Topic:       TopicNotifications,
		EventType:   EventHoldCreated,
		AggregateID: h.ID,
		Payload:     raw,
		Status:      OutboxPending,
		AvailableAt: now,
		CreatedAt:   now,
	}, nil
}

// NewExpiryEvents события об истечении окна оплаты для обоих топиков
func NewExpiryEvents(b *Booking, now time.Time) ([]*OutboxEvent, error) {
	events := make([]*OutboxEvent, 0, 2)
	for _, topic := range []string{TopicNotifications, TopicOps} {
		e, err := NewBookingEvent(topic, EventBookingExpired, b, now, func(p *BookingEventPayload) {
			p.Reason = string(ReasonPaymentExpired)
		})
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
