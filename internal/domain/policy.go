package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PenaltyModel способ расчета штрафа для тарифа PARTIAL
type PenaltyModel string

const (
	PenaltyNone            PenaltyModel = "NONE"
	PenaltyFixedFee        PenaltyModel = "FIXED_FEE"
	PenaltyPercentOfTotal  PenaltyModel = "PERCENT_OF_TOTAL"
	PenaltyPercentOfNights PenaltyModel = "PERCENT_OF_NIGHTS"
)

func (m PenaltyModel) Valid() bool {
	switch m {
	case PenaltyNone, PenaltyFixedFee, PenaltyPercentOfTotal, PenaltyPercentOfNights:
		return true
	}
	return false
}

// IsPercent true для процентных моделей
func (m PenaltyModel) IsPercent() bool {
	return m == PenaltyPercentOfTotal || m == PenaltyPercentOfNights
}

// CancellationMode режим отмены
type CancellationMode string

const (
	ModeSoft CancellationMode = "SOFT"
	ModeHard CancellationMode = "HARD"
)

func (m CancellationMode) Valid() bool {
	return m == ModeSoft || m == ModeHard
}

// RefundTier ступень политики возврата
type RefundTier string

const (
	TierFree     RefundTier = "FREE"
	TierPartial  RefundTier = "PARTIAL"
	TierNoRefund RefundTier = "NO_REFUND"
)

// CancellationPolicy версия политики отмены. PropertyID == nil означает глобальную политику.
type CancellationPolicy struct {
	ID                           uuid.UUID
	PropertyID                   *uuid.UUID
	Version                      int
	FreeCancelBeforeHours        int
	PartialRefundBeforeHours     int
	NoRefundWithinHours          int
	PenaltyModel                 PenaltyModel
	PenaltyValue                 int64 // проценты для процентных моделей, минорные единицы для FIXED_FEE
	DefaultMode                  CancellationMode
	ChargeFirstNightOnLateCancel bool
	IsActive                     bool
	CreatedBy                    *int64
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

// DefaultCancellationPolicy встроенная политика на случай, если в хранилище нет ни одной активной
func DefaultCancellationPolicy() *CancellationPolicy {
	return &CancellationPolicy{
		Version:                  0,
		FreeCancelBeforeHours:    72,
		PartialRefundBeforeHours: 24,
		NoRefundWithinHours:      0,
		PenaltyModel:             PenaltyPercentOfTotal,
		PenaltyValue:             50,
		DefaultMode:              ModeSoft,
		IsActive:                 true,
	}
}

// Validate проверяет пороги и параметры штрафа
func (p *CancellationPolicy) Validate() error {
	if !(p.FreeCancelBeforeHours > p.PartialRefundBeforeHours &&
		p.PartialRefundBeforeHours > p.NoRefundWithinHours &&
		p.NoRefundWithinHours >= 0) {
		return fmt.Errorf("%w: thresholds must satisfy free > partial > noRefund >= 0, got %d/%d/%d",
			ErrInvalidInput, p.FreeCancelBeforeHours, p.PartialRefundBeforeHours, p.NoRefundWithinHours)
	}
	if !p.PenaltyModel.Valid() {
		return fmt.Errorf("%w: unknown penalty model %q", ErrInvalidInput, p.PenaltyModel)
	}
	if p.PenaltyValue < 0 {
		return fmt.Errorf("%w: penalty value must not be negative", ErrInvalidInput)
	}
	if p.PenaltyModel.IsPercent() && p.PenaltyValue > MaxPercentValue {
		return fmt.Errorf("%w: percent penalty must be within [0,100]", ErrInvalidInput)
	}
	if !p.DefaultMode.Valid() {
		return fmt.Errorf("%w: unknown cancellation mode %q", ErrInvalidInput, p.DefaultMode)
	}
	return nil
}

// Decision результат применения политики отмены
type Decision struct {
	Tier              RefundTier
	Mode              CancellationMode
	TotalAmount       int64
	PenaltyAmount     int64
	RefundableAmount  int64
	Currency          string
	ReleasesInventory bool
	PolicyVersion     int
	HoursToCheckIn    float64
}
