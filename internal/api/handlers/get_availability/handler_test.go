package get_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	getAvailability "github.com/m04kA/SMC-StayBookingService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

type useCaseFunc func(ctx context.Context, req *getAvailability.Request) (*getAvailability.Response, error)

func (f useCaseFunc) Execute(ctx context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	return f(ctx, req)
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/properties/{propertyId}/availability", h.Handle).Methods(http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle_ReturnsNights(t *testing.T) {
	propertyID := uuid.New()
	from := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	note := "ремонт"

	h := NewHandler(useCaseFunc(func(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
		assert.Equal(t, propertyID, req.PropertyID)
		assert.True(t, from.Equal(req.From))
		assert.True(t, from.AddDate(0, 0, 3).Equal(req.To))
		return &getAvailability.Response{
			PropertyID: propertyID,
			From:       req.From,
			To:         req.To,
			Nights: []getAvailability.Night{
				{Date: from, State: getAvailability.NightAvailable, MinNights: 2},
				{Date: from.AddDate(0, 0, 1), State: getAvailability.NightBooked, MinNights: 2},
				{Date: from.AddDate(0, 0, 2), State: getAvailability.NightBlocked, MinNights: 2, Note: &note},
			},
		}, nil
	}), logger.NewNop())

	rec := serve(h, "/api/v1/properties/"+propertyID.String()+"/availability?from=2026-11-01&to=2026-11-04")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Nights, 3)
	assert.Equal(t, "2026-11-01", resp.From)
	assert.Equal(t, "2026-11-04", resp.To)
	assert.Equal(t, "BOOKED", resp.Nights[1].State)
	require.NotNil(t, resp.Nights[2].Note)
	assert.Equal(t, note, *resp.Nights[2].Note)
}

func TestHandle_Errors(t *testing.T) {
	propertyID := uuid.New()
	base := "/api/v1/properties/" + propertyID.String() + "/availability"

	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{name: "missing dates", target: base, status: http.StatusBadRequest},
		{name: "bad date", target: base + "?from=01.11.2026&to=2026-11-04", status: http.StatusBadRequest},
		{name: "bad property id", target: "/api/v1/properties/xyz/availability?from=2026-11-01&to=2026-11-04", status: http.StatusBadRequest},
		{name: "inverted window", target: base + "?from=2026-11-04&to=2026-11-01", err: domain.ErrInvalidRange, status: http.StatusBadRequest},
		{name: "unknown property", target: base + "?from=2026-11-01&to=2026-11-04", err: getAvailability.ErrPropertyNotFound, status: http.StatusNotFound},
		{name: "internal", target: base + "?from=2026-11-01&to=2026-11-04", err: getAvailability.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(useCaseFunc(func(context.Context, *getAvailability.Request) (*getAvailability.Response, error) {
				return nil, tt.err
			}), logger.NewNop())
			assert.Equal(t, tt.status, serve(h, tt.target).Code)
		})
	}
}
