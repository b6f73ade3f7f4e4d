package notifier

import (
	"context"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// LogPublisher пишет уведомления в лог, когда Kafka отключена
type LogPublisher struct {
	log Logger
}

func NewLogPublisher(log Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.log.Info("Notification %s event=%s aggregate=%s payload=%s",
		event.EventType, event.ID, event.AggregateID, string(event.Payload))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
