package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("domain: invalid input")

	// ErrInvalidRange checkIn >= checkOut, даты в прошлом или слишком длинное проживание
	ErrInvalidRange = errors.New("domain: invalid date range")

	// ErrMinimumStayNotMet диапазон короче минимального числа ночей
	ErrMinimumStayNotMet = errors.New("domain: minimum stay not met")

	// ErrBlockedDates в диапазоне есть заблокированные ночи
	ErrBlockedDates = errors.New("domain: dates are blocked")

	// ErrDatesUnavailable диапазон пересекается с бронированием
	ErrDatesUnavailable = errors.New("domain: dates are unavailable")

	// ErrDatesContended диапазон пересекается с активным холдом
	ErrDatesContended = errors.New("domain: dates are held by another request")

	// ErrHoldExpired холд истек
	ErrHoldExpired = errors.New("domain: hold expired")

	// ErrInvalidState операция недопустима в текущем статусе
	ErrInvalidState = errors.New("domain: invalid state")

	// ErrCancellationWindowClosed отмена после времени заезда
	ErrCancellationWindowClosed = errors.New("domain: cancellation window closed")

	// ErrPaymentWindowElapsed окно оплаты бронирования истекло
	ErrPaymentWindowElapsed = errors.New("domain: payment window elapsed")

	// ErrProvider ошибка платежного провайдера
	ErrProvider = errors.New("domain: payment provider error")

	// ErrForbidden у пользователя нет прав на операцию
	ErrForbidden = errors.New("domain: forbidden")

	// ErrNotFound сущность не найдена
	ErrNotFound = errors.New("domain: not found")
)

// ConflictError конфликт по датам с подробностями для клиента
type ConflictError struct {
	Reason        error
	PropertyID    uuid.UUID
	Nights        []time.Time
	ConflictingID *uuid.UUID
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	fmt.Fprintf(&b, ": property=%s", e.PropertyID)
	if len(e.Nights) > 0 {
		nights := make([]string, len(e.Nights))
		for i, n := range e.Nights {
			nights[i] = n.Format(DateFormat)
		}
		fmt.Fprintf(&b, " nights=%s", strings.Join(nights, ","))
	}
	if e.ConflictingID != nil {
		fmt.Fprintf(&b, " conflicting=%s", *e.ConflictingID)
	}
	return b.String()
}

func (e *ConflictError) Unwrap() error {
	return e.Reason
}

// StateError операция отклонена из-за текущего статуса сущности
type StateError struct {
	Entity    string
	ID        uuid.UUID
	Status    string
	Operation string
	// Reason уточняет причину. По умолчанию ErrInvalidState.
	Reason error
}

// NewStateError создает ошибку состояния с причиной ErrInvalidState
func NewStateError[S ~string](entity string, id uuid.UUID, status S, operation string) *StateError {
	return &StateError{Entity: entity, ID: id, Status: string(status), Operation: operation}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s %s is %s, cannot %s", e.Unwrap(), e.Entity, e.ID, e.Status, e.Operation)
}

func (e *StateError) Unwrap() error {
	if e.Reason != nil {
		return e.Reason
	}
	return ErrInvalidState
}
