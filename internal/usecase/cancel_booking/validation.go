package cancel_booking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// validateRequest валидирует запрос и возвращает режим, который будет передан в политику
func validateRequest(req *Request) (*domain.CancellationMode, error) {
	if req.Actor.UserID <= 0 || !req.Actor.Role.Valid() {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if req.BookingID == uuid.Nil {
		return nil, fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}
	if !req.Reason.AllowedFor(req.Actor.Role) {
		return nil, fmt.Errorf("%w: %s cannot use %q", ErrReasonNotAllowed, req.Actor.Role, req.Reason)
	}
	if req.Mode != nil && !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, *req.Mode)
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if utf8.RuneCountInString(notes) > domain.MaxCancellationNotesLength {
			return nil, fmt.Errorf("%w: notes are longer than %d characters", ErrInvalidInput, domain.MaxCancellationNotesLength)
		}
		if notes == "" {
			req.Notes = nil
		} else {
			req.Notes = &notes
		}
	}

	// Причины вроде мошенничества не допускают мягкую отмену
	if req.Reason.ForcesHardMode() {
		hard := domain.ModeHard
		return &hard, nil
	}
	return req.Mode, nil
}

// canCancel клиент отменяет свои бронирования, вендор бронирования своих объектов, администратор любые
func canCancel(actor domain.Actor, booking *domain.Booking, property *domain.Property) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleCustomer:
		return booking.CustomerID == actor.UserID
	case domain.RoleVendor:
		return property.IsOwnedBy(actor.UserID)
	}
	return false
}
