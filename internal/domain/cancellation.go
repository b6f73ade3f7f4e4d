package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// CancellationReason причина отмены
type CancellationReason string

const (
	ReasonChangeOfPlans       CancellationReason = "CHANGE_OF_PLANS"
	ReasonTravelIssue         CancellationReason = "TRAVEL_ISSUE"
	ReasonPropertyUnavailable CancellationReason = "PROPERTY_UNAVAILABLE"
	ReasonMaintenance         CancellationReason = "MAINTENANCE"
	ReasonFraud               CancellationReason = "FRAUD"
	ReasonAdminOverride       CancellationReason = "ADMIN_OVERRIDE"
	ReasonPolicyViolation     CancellationReason = "POLICY_VIOLATION"
	ReasonOther               CancellationReason = "OTHER"
	ReasonPaymentExpired      CancellationReason = "PAYMENT_WINDOW_EXPIRED"
)

// reasonsByRole причины, разрешенные каждой роли
var reasonsByRole = map[Role][]CancellationReason{
	RoleCustomer: {ReasonChangeOfPlans, ReasonTravelIssue, ReasonOther},
	RoleVendor:   {ReasonPropertyUnavailable, ReasonMaintenance, ReasonOther},
	RoleAdmin:    {ReasonFraud, ReasonAdminOverride, ReasonPolicyViolation, ReasonOther},
}

// hardReasons причины, которые всегда означают жесткую отмену
var hardReasons = []CancellationReason{ReasonFraud, ReasonAdminOverride, ReasonPolicyViolation}

// AllowedFor проверяет, может ли роль указать такую причину
func (r CancellationReason) AllowedFor(role Role) bool {
	return slices.Contains(reasonsByRole[role], r)
}

// ForcesHardMode true для причин, не допускающих мягкую отмену
func (r CancellationReason) ForcesHardMode() bool {
	return slices.Contains(hardReasons, r)
}

// BookingCancellation неизменяемый снимок решения об отмене
type BookingCancellation struct {
	ID                uuid.UUID
	BookingID         uuid.UUID
	ActorID           int64
	ActorRole         Role
	Reason            CancellationReason
	Notes             *string
	Mode              CancellationMode
	Tier              RefundTier
	PolicyVersion     int
	TotalAmount       int64
	PenaltyAmount     int64
	RefundableAmount  int64
	Currency          string
	ReleasesInventory bool
	RefundID          *uuid.UUID
	CreatedAt         time.Time
}
