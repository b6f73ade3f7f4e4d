package update_cancellation_policy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

type fakeService struct {
	propertyCalls []uuid.UUID
	globalCalls   int
	lastReq       *models.UpdatePolicyRequest
	err           error
}

func (f *fakeService) UpdateForProperty(_ context.Context, _ domain.Actor, propertyID uuid.UUID, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	f.propertyCalls = append(f.propertyCalls, propertyID)
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.PolicyResponse{PropertyID: &propertyID, Scope: models.ScopeProperty, Version: 2}, nil
}

func (f *fakeService) UpdateGlobal(_ context.Context, _ domain.Actor, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	f.globalCalls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.PolicyResponse{Scope: models.ScopeGlobal, Version: 1}, nil
}

const validBody = `{
	"freeCancelBeforeHours": 72,
	"partialRefundBeforeHours": 24,
	"noRefundWithinHours": 0,
	"penaltyModel": "percent_of_total",
	"penaltyValue": 50,
	"defaultMode": "soft"
}`

func serve(h *Handler, actor domain.Actor, target, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/properties/{propertyId}/cancellation-policy", h.Handle).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/cancellation-policy", h.Handle).Methods(http.MethodPut)

	req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_RoutesByScope(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc, logger.NewNop())
	vendor := domain.Actor{UserID: 3, Role: domain.RoleVendor}
	propertyID := uuid.New()

	rec := serve(h, vendor, "/api/v1/properties/"+propertyID.String()+"/cancellation-policy", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{propertyID}, svc.propertyCalls)
	assert.Equal(t, domain.PenaltyPercentOfTotal, svc.lastReq.PenaltyModel)
	assert.Equal(t, domain.ModeSoft, svc.lastReq.DefaultMode)

	rec = serve(h, domain.Actor{UserID: 1, Role: domain.RoleAdmin}, "/api/v1/cancellation-policy", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.globalCalls)
	assert.Contains(t, rec.Body.String(), `"scope":"GLOBAL"`)
}

func TestHandle_Errors(t *testing.T) {
	vendor := domain.Actor{UserID: 3, Role: domain.RoleVendor}
	target := "/api/v1/properties/" + uuid.NewString() + "/cancellation-policy"

	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{name: "thresholds out of order", err: fmt.Errorf("%w: thresholds", domain.ErrInvalidInput), body: validBody, status: http.StatusBadRequest},
		{name: "not owner", err: policy.ErrAccessDenied, body: validBody, status: http.StatusForbidden},
		{name: "unknown property", err: policy.ErrPropertyNotFound, body: validBody, status: http.StatusNotFound},
		{name: "internal", err: policy.ErrInternal, body: validBody, status: http.StatusInternalServerError},
		{name: "negative hours", body: `{"freeCancelBeforeHours":-1,"penaltyModel":"NONE"}`, status: http.StatusBadRequest},
		{name: "missing penalty model", body: `{"freeCancelBeforeHours":10}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeService{err: tt.err}, logger.NewNop())
			assert.Equal(t, tt.status, serve(h, vendor, target, tt.body).Code)
		})
	}
}
