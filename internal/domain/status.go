package domain

import (
	"fmt"
	"slices"
)

// transitions таблица допустимых переходов для одного статусного перечисления
type transitions[S comparable] map[S][]S

func (t transitions[S]) allows(from, to S) bool {
	return slices.Contains(t[from], to)
}

func (t transitions[S]) terminal(s S) bool {
	next, known := t[s]
	return known && len(next) == 0
}

func (t transitions[S]) known(s S) bool {
	_, ok := t[s]
	return ok
}

// HoldStatus статус холда
type HoldStatus string

const (
	HoldActive    HoldStatus = "ACTIVE"
	HoldConverted HoldStatus = "CONVERTED"
	HoldExpired   HoldStatus = "EXPIRED"
	HoldCancelled HoldStatus = "CANCELLED"
)

var holdTransitions = transitions[HoldStatus]{
	HoldActive:    {HoldConverted, HoldExpired, HoldCancelled},
	HoldConverted: {},
	HoldExpired:   {},
	HoldCancelled: {},
}

func (s HoldStatus) Valid() bool                       { return holdTransitions.known(s) }
func (s HoldStatus) IsTerminal() bool                  { return holdTransitions.terminal(s) }
func (s HoldStatus) CanTransitionTo(n HoldStatus) bool { return holdTransitions.allows(s, n) }

// BookingStatus статус бронирования
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingCompleted      BookingStatus = "COMPLETED"
)

var bookingTransitions = transitions[BookingStatus]{
	BookingPendingPayment: {BookingConfirmed, BookingCancelled},
	BookingConfirmed:      {BookingCompleted, BookingCancelled},
	BookingCancelled:      {},
	BookingCompleted:      {},
}

func (s BookingStatus) Valid() bool                          { return bookingTransitions.known(s) }
func (s BookingStatus) IsTerminal() bool                     { return bookingTransitions.terminal(s) }
func (s BookingStatus) CanTransitionTo(n BookingStatus) bool { return bookingTransitions.allows(s, n) }

// ParseBookingStatus разбирает статус из строки запроса
func ParseBookingStatus(v string) (BookingStatus, error) {
	s := BookingStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown booking status %q", ErrInvalidInput, v)
	}
	return s, nil
}

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentRequiresAction    PaymentStatus = "REQUIRES_ACTION"
	PaymentAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentCaptured          PaymentStatus = "CAPTURED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentFailed            PaymentStatus = "FAILED"
)

var paymentTransitions = transitions[PaymentStatus]{
	PaymentRequiresAction:    {PaymentAuthorized, PaymentFailed},
	PaymentAuthorized:        {PaymentCaptured, PaymentPartiallyRefunded, PaymentRefunded},
	PaymentCaptured:          {PaymentPartiallyRefunded, PaymentRefunded},
	PaymentPartiallyRefunded: {PaymentRefunded},
	PaymentFailed:            {PaymentAuthorized, PaymentFailed},
	PaymentRefunded:          {},
}

func (s PaymentStatus) Valid() bool                          { return paymentTransitions.known(s) }
func (s PaymentStatus) IsTerminal() bool                     { return paymentTransitions.terminal(s) }
func (s PaymentStatus) CanTransitionTo(n PaymentStatus) bool { return paymentTransitions.allows(s, n) }

// IsFunded true, если деньги авторизованы или списаны и по ним возможен возврат
func (s PaymentStatus) IsFunded() bool {
	return s == PaymentAuthorized || s == PaymentCaptured
}

// RefundStatus статус возврата
type RefundStatus string

const (
	RefundPending    RefundStatus = "PENDING"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundSucceeded  RefundStatus = "SUCCEEDED"
	RefundFailed     RefundStatus = "FAILED"
)

var refundTransitions = transitions[RefundStatus]{
	RefundPending:    {RefundProcessing},
	RefundProcessing: {RefundSucceeded, RefundFailed},
	RefundSucceeded:  {},
	RefundFailed:     {},
}

func (s RefundStatus) Valid() bool                         { return refundTransitions.known(s) }
func (s RefundStatus) IsTerminal() bool                    { return refundTransitions.terminal(s) }
func (s RefundStatus) CanTransitionTo(n RefundStatus) bool { return refundTransitions.allows(s, n) }

// PaymentEventType тип операции в журнале платежных событий
type PaymentEventType string

const (
	EventAuthorize PaymentEventType = "AUTHORIZE"
	EventCapture   PaymentEventType = "CAPTURE"
	EventRefund    PaymentEventType = "REFUND"
)

// PaymentEventStatus статус записи журнала
type PaymentEventStatus string

const (
	EventPending   PaymentEventStatus = "PENDING"
	EventSucceeded PaymentEventStatus = "SUCCEEDED"
	EventFailed    PaymentEventStatus = "FAILED"
)

var paymentEventTransitions = transitions[PaymentEventStatus]{
	EventPending:   {EventSucceeded, EventFailed},
	EventSucceeded: {},
	EventFailed:    {},
}

func (s PaymentEventStatus) IsTerminal() bool { return paymentEventTransitions.terminal(s) }
func (s PaymentEventStatus) CanTransitionTo(n PaymentEventStatus) bool {
	return paymentEventTransitions.allows(s, n)
}
