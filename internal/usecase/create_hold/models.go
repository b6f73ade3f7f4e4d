package create_hold

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Settings ограничения холдов из конфигурации
type Settings struct {
	DefaultTTLMinutes int
	MinTTLMinutes     int
	MaxTTLMinutes     int
	MaxNights         int
}

// DefaultSettings значения по умолчанию
func DefaultSettings() Settings {
	return Settings{
		DefaultTTLMinutes: domain.DefaultHoldTTLMinutes,
		MinTTLMinutes:     domain.MinHoldTTLMinutes,
		MaxTTLMinutes:     domain.MaxHoldTTLMinutes,
		MaxNights:         domain.DefaultMaxNights,
	}
}

// Request модель запроса на создание холда
type Request struct {
	UserID     int64
	Role       domain.Role
	PropertyID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	TTLMinutes int // 0 - значение по умолчанию
}

// Response модель ответа с созданным холдом
type Response struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	Nights     int
	Status     domain.HoldStatus
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

func toResponse(h *domain.Hold) *Response {
	return &Response{
		ID:         h.ID,
		PropertyID: h.PropertyID,
		CheckIn:    h.CheckIn,
		CheckOut:   h.CheckOut,
		Nights:     h.Range().Nights(),
		Status:     h.Status,
		ExpiresAt:  h.ExpiresAt,
		CreatedAt:  h.CreatedAt,
	}
}
