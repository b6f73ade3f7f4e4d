package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Заголовки сообщений
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderTopic     = "source-topic"
)

// Writer подмножество kafka.Writer, используемое публикатором
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher публикует уведомления о бронированиях в Kafka.
// Ключ сообщения - ID агрегата, что сохраняет порядок событий одного бронирования.
type KafkaPublisher struct {
	writer  Writer
	timeout time.Duration
	log     Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher создает публикатор с kafka.Writer на переданные брокеры
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration, log Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrInvalidConfig)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic cannot be empty", ErrInvalidConfig)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...any) { log.Error(msg, args...) }),
	}
	return NewKafkaPublisherWithWriter(writer, timeout, log), nil
}

// NewKafkaPublisherWithWriter создает публикатор поверх готового writer
func NewKafkaPublisherWithWriter(w Writer, timeout time.Duration, log Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout, log: log}
}

// Publish отправляет событие. Ошибка означает, что событие нужно доставить повторно.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if len(event.Payload) == 0 {
		return fmt.Errorf("%w: event %s has empty payload", ErrInvalidEvent, event.ID)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID.String()),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(event.ID.String())},
			{Key: HeaderEventType, Value: []byte(event.EventType)},
			{Key: HeaderTopic, Value: []byte(event.Topic)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: event=%s type=%s: %v", ErrPublish, event.ID, event.EventType, err)
	}

	p.log.Info("Published %s event=%s aggregate=%s", event.EventType, event.ID, event.AggregateID)
	return nil
}

// Close закрывает writer. Повторный вызов ничего не делает.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
