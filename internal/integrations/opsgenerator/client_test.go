package opsgenerator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

func testEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:          uuid.New(),
		Topic:       domain.TopicOps,
		EventType:   domain.EventBookingCancelled,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"status":"CANCELLED"}`),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestClient_Send(t *testing.T) {
	event := testEvent()

	var got EventRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/booking-events", r.URL.Path)
		assert.Equal(t, event.ID.String(), r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.NewNop())
	require.NoError(t, c.Send(context.Background(), event))

	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "BOOKING_CANCELLED", got.Type)
	assert.JSONEq(t, `{"status":"CANCELLED"}`, string(got.Payload))
}

func TestClient_SendStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "server error is retryable", status: http.StatusBadGateway, wantErr: ErrUnavailable},
		{name: "throttled is retryable", status: http.StatusTooManyRequests, wantErr: ErrUnavailable},
		{name: "bad request is permanent", status: http.StatusBadRequest, wantErr: ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"code":1,"message":"nope"}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, logger.NewNop())
			err := c.Send(context.Background(), testEvent())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_SendUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, logger.NewNop())
	err := c.Send(context.Background(), testEvent())
	assert.ErrorIs(t, err, ErrUnavailable)
}
