package cancel_hold

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Request модель запроса на отмену холда
type Request struct {
	UserID int64
	HoldID uuid.UUID
}

// Response итоговое состояние холда
type Response struct {
	ID        uuid.UUID
	Status    domain.HoldStatus
	ExpiresAt time.Time
	UpdatedAt time.Time
}
