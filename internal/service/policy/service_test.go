package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
	"github.com/m04kA/SMC-StayBookingService/internal/testutil/memstore"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

const vendorID int64 = 500

func newService(t *testing.T) (*Service, *memstore.Store, domain.Property) {
	t.Helper()
	store := memstore.New()
	property := domain.Property{ID: uuid.New(), VendorID: vendorID, NightlyRate: 100, Currency: "USD", MinNights: 1}
	store.AddProperty(property)
	return NewService(store.PolicyRepo(), store.Properties(), store, logger.NewNop()), store, property
}

func updateRequest() *models.UpdatePolicyRequest {
	return &models.UpdatePolicyRequest{
		FreeCancelBeforeHours:    48,
		PartialRefundBeforeHours: 12,
		NoRefundWithinHours:      0,
		PenaltyModel:             domain.PenaltyFixedFee,
		PenaltyValue:             2500,
	}
}

func TestEffective_FallsBackToDefault(t *testing.T) {
	svc, _, property := newService(t)

	p, err := svc.Effective(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Version)
	assert.Equal(t, 72, p.FreeCancelBeforeHours)

	resp, err := svc.GetForProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeDefault, resp.Scope)
}

func TestEffective_PropertyOverridesGlobal(t *testing.T) {
	svc, store, property := newService(t)
	now := time.Now().UTC()

	store.PutPolicy(domain.CancellationPolicy{
		ID: uuid.New(), Version: 1, FreeCancelBeforeHours: 96, PartialRefundBeforeHours: 48,
		PenaltyModel: domain.PenaltyNone, DefaultMode: domain.ModeSoft, IsActive: true, UpdatedAt: now,
	})

	p, err := svc.Effective(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Nil(t, p.PropertyID)
	assert.Equal(t, 96, p.FreeCancelBeforeHours)

	store.PutPolicy(domain.CancellationPolicy{
		ID: uuid.New(), PropertyID: &property.ID, Version: 2, FreeCancelBeforeHours: 24, PartialRefundBeforeHours: 6,
		PenaltyModel: domain.PenaltyNone, DefaultMode: domain.ModeHard, IsActive: true, UpdatedAt: now.Add(-time.Hour),
	})

	p, err = svc.Effective(context.Background(), property.ID)
	require.NoError(t, err)
	require.NotNil(t, p.PropertyID)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, domain.ModeHard, p.DefaultMode)

	other, err := svc.Effective(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 96, other.FreeCancelBeforeHours)
}

func TestUpdateForProperty_CreatesVersions(t *testing.T) {
	svc, _, property := newService(t)
	vendor := domain.Actor{UserID: vendorID, Role: domain.RoleVendor}

	first, err := svc.UpdateForProperty(context.Background(), vendor, property.ID, updateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, models.ScopeProperty, first.Scope)
	assert.Equal(t, domain.ModeSoft, first.DefaultMode)

	req := updateRequest()
	req.PenaltyValue = 5000
	second, err := svc.UpdateForProperty(context.Background(), domain.Actor{UserID: 1, Role: domain.RoleAdmin}, property.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	effective, err := svc.GetForProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, effective.Version)
	assert.Equal(t, int64(5000), effective.PenaltyValue)
}

func TestUpdateForProperty_Rejections(t *testing.T) {
	svc, _, property := newService(t)

	tests := []struct {
		name       string
		actor      domain.Actor
		propertyID uuid.UUID
		mutate     func(r *models.UpdatePolicyRequest)
		wantErr    error
	}{
		{
			name:       "customer",
			actor:      domain.Actor{UserID: 1, Role: domain.RoleCustomer},
			propertyID: property.ID,
			wantErr:    ErrAccessDenied,
		},
		{
			name:       "foreign vendor",
			actor:      domain.Actor{UserID: vendorID + 1, Role: domain.RoleVendor},
			propertyID: property.ID,
			wantErr:    ErrAccessDenied,
		},
		{
			name:       "unknown property",
			actor:      domain.Actor{UserID: 1, Role: domain.RoleAdmin},
			propertyID: uuid.New(),
			wantErr:    ErrPropertyNotFound,
		},
		{
			name:       "thresholds out of order",
			actor:      domain.Actor{UserID: vendorID, Role: domain.RoleVendor},
			propertyID: property.ID,
			mutate:     func(r *models.UpdatePolicyRequest) { r.PartialRefundBeforeHours = 48 },
			wantErr:    domain.ErrInvalidInput,
		},
		{
			name:       "percent above 100",
			actor:      domain.Actor{UserID: vendorID, Role: domain.RoleVendor},
			propertyID: property.ID,
			mutate: func(r *models.UpdatePolicyRequest) {
				r.PenaltyModel = domain.PenaltyPercentOfNights
				r.PenaltyValue = 101
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:       "negative fee",
			actor:      domain.Actor{UserID: vendorID, Role: domain.RoleVendor},
			propertyID: property.ID,
			mutate:     func(r *models.UpdatePolicyRequest) { r.PenaltyValue = -1 },
			wantErr:    domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := updateRequest()
			if tt.mutate != nil {
				tt.mutate(req)
			}
			_, err := svc.UpdateForProperty(context.Background(), tt.actor, tt.propertyID, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUpdateGlobal(t *testing.T) {
	svc, _, property := newService(t)

	_, err := svc.UpdateGlobal(context.Background(), domain.Actor{UserID: vendorID, Role: domain.RoleVendor}, updateRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err := svc.UpdateGlobal(context.Background(), domain.Actor{UserID: 1, Role: domain.RoleAdmin}, updateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScopeGlobal, resp.Scope)
	assert.Equal(t, 1, resp.Version)

	effective, err := svc.GetForProperty(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeGlobal, effective.Scope)
	assert.Equal(t, 48, effective.FreeCancelBeforeHours)
}
