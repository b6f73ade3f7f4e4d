package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// UpdatePolicyRequest запрос на создание новой версии политики
type UpdatePolicyRequest struct {
	FreeCancelBeforeHours        int
	PartialRefundBeforeHours     int
	NoRefundWithinHours          int
	PenaltyModel                 domain.PenaltyModel
	PenaltyValue                 int64
	DefaultMode                  domain.CancellationMode
	ChargeFirstNightOnLateCancel bool
}

// ToDomain конвертирует запрос в доменную политику для области видимости propertyID
func (r *UpdatePolicyRequest) ToDomain(propertyID *uuid.UUID, createdBy int64) *domain.CancellationPolicy {
	mode := r.DefaultMode
	if mode == "" {
		mode = domain.ModeSoft
	}
	return &domain.CancellationPolicy{
		ID:                           uuid.New(),
		PropertyID:                   propertyID,
		FreeCancelBeforeHours:        r.FreeCancelBeforeHours,
		PartialRefundBeforeHours:     r.PartialRefundBeforeHours,
		NoRefundWithinHours:          r.NoRefundWithinHours,
		PenaltyModel:                 r.PenaltyModel,
		PenaltyValue:                 r.PenaltyValue,
		DefaultMode:                  mode,
		ChargeFirstNightOnLateCancel: r.ChargeFirstNightOnLateCancel,
		CreatedBy:                    &createdBy,
	}
}

// PolicyResponse действующая политика отмены
type PolicyResponse struct {
	PropertyID                   *uuid.UUID              `json:"propertyId,omitempty"`
	Scope                        string                  `json:"scope"` // PROPERTY, GLOBAL или DEFAULT
	Version                      int                     `json:"version"`
	FreeCancelBeforeHours        int                     `json:"freeCancelBeforeHours"`
	PartialRefundBeforeHours     int                     `json:"partialRefundBeforeHours"`
	NoRefundWithinHours          int                     `json:"noRefundWithinHours"`
	PenaltyModel                 domain.PenaltyModel     `json:"penaltyModel"`
	PenaltyValue                 int64                   `json:"penaltyValue"`
	DefaultMode                  domain.CancellationMode `json:"defaultMode"`
	ChargeFirstNightOnLateCancel bool                    `json:"chargeFirstNightOnLateCancel"`
	UpdatedAt                    *time.Time              `json:"updatedAt,omitempty"`
}

// Области видимости политики
const (
	ScopeProperty = "PROPERTY"
	ScopeGlobal   = "GLOBAL"
	ScopeDefault  = "DEFAULT"
)

// FromDomain конвертирует доменную политику в ответ
func FromDomain(p *domain.CancellationPolicy) *PolicyResponse {
	resp := &PolicyResponse{
		PropertyID:                   p.PropertyID,
		Scope:                        ScopeGlobal,
		Version:                      p.Version,
		FreeCancelBeforeHours:        p.FreeCancelBeforeHours,
		PartialRefundBeforeHours:     p.PartialRefundBeforeHours,
		NoRefundWithinHours:          p.NoRefundWithinHours,
		PenaltyModel:                 p.PenaltyModel,
		PenaltyValue:                 p.PenaltyValue,
		DefaultMode:                  p.DefaultMode,
		ChargeFirstNightOnLateCancel: p.ChargeFirstNightOnLateCancel,
	}
	switch {
	case p.PropertyID != nil:
		resp.Scope = ScopeProperty
	case p.Version == 0:
		resp.Scope = ScopeDefault
	}
	if !p.UpdatedAt.IsZero() {
		updatedAt := p.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}
