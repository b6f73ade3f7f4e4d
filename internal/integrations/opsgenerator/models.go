package opsgenerator

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventRequest тело запроса доставки события
type EventRequest struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	AggregateID uuid.UUID       `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// ErrorResponse модель ошибки от ops-генератора
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
