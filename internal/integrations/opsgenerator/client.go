package opsgenerator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Client клиент для ops-генератора: внешний сервис, получающий события бронирований
// для управления инвентарем (уборка, выдача ключей, закрытие дат в каналах продаж)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента ops-генератора
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Send доставляет событие. ID события передается как Idempotency-Key,
// так что повторная доставка безопасна для получателя.
func (c *Client) Send(ctx context.Context, event *domain.OutboxEvent) error {
	url := fmt.Sprintf("%s/internal/booking-events", c.baseURL)

	body, err := json.Marshal(EventRequest{
		ID:          event.ID,
		Type:        string(event.EventType),
		AggregateID: event.AggregateID,
		OccurredAt:  event.CreatedAt,
		Payload:     event.Payload,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to encode event: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", event.ID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.log.Info("Ops event delivered: type=%s event=%s aggregate=%s", event.EventType, event.ID, event.AggregateID)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status code %d: %s", ErrUnavailable, resp.StatusCode, string(respBody))
	default:
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		c.log.Error("Ops generator rejected event=%s status=%d message=%s", event.ID, resp.StatusCode, errResp.Message)
		return fmt.Errorf("%w: status code %d: %s", ErrRejected, resp.StatusCode, errResp.Message)
	}
}
