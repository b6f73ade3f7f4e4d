package create_hold

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	createHold "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_hold"
)

// CreateHoldRequest HTTP request model
type CreateHoldRequest struct {
	PropertyID string `json:"propertyId" validate:"required,uuid"`
	CheckIn    string `json:"checkIn" validate:"required"`  // "2025-10-15"
	CheckOut   string `json:"checkOut" validate:"required"` // "2025-10-18"
	TTLMinutes *int   `json:"ttlMinutes,omitempty" validate:"omitempty,min=1"`
}

// HoldResponse HTTP response model
type HoldResponse struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"propertyId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Nights     int       `json:"nights"`
	Status     string    `json:"status"`
	ExpiresAt  string    `json:"expiresAt"`
	CreatedAt  string    `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateHoldRequest) ToUseCaseRequest(actor domain.Actor) (*createHold.Request, error) {
	propertyID, err := uuid.Parse(r.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("property id: %w", err)
	}
	checkIn, err := time.Parse(domain.DateFormat, r.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("check-in: %w", err)
	}
	checkOut, err := time.Parse(domain.DateFormat, r.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("check-out: %w", err)
	}

	req := &createHold.Request{
		UserID:     actor.UserID,
		Role:       actor.Role,
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}
	if r.TTLMinutes != nil {
		req.TTLMinutes = *r.TTLMinutes
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createHold.Response) *HoldResponse {
	return &HoldResponse{
		ID:         resp.ID,
		PropertyID: resp.PropertyID,
		CheckIn:    resp.CheckIn.Format(domain.DateFormat),
		CheckOut:   resp.CheckOut.Format(domain.DateFormat),
		Nights:     resp.Nights,
		Status:     string(resp.Status),
		ExpiresAt:  resp.ExpiresAt.Format(time.RFC3339),
		CreatedAt:  resp.CreatedAt.Format(time.RFC3339),
	}
}
