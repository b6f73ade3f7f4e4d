// Package outboxrelay доставляет события из outbox получателям топиков.
// Пачка событий захватывается в транзакции (FOR UPDATE SKIP LOCKED):
// одно событие одновременно доставляет только один экземпляр сервиса.
// Доставка "как минимум один раз": получатели дедуплицируют по ID события.
package outboxrelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/notifier"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/opsgenerator"
)

const (
	defaultInterval    = 2 * time.Second
	defaultBatchSize   = 100
	defaultMaxAttempts = 10
	defaultBaseBackoff = 5 * time.Second
	defaultMaxBackoff  = 10 * time.Minute
	maxErrorLength     = 1000
)

// Результаты доставки для метрик
const (
	ResultPublished = "published"
	ResultRetry     = "retry"
	ResultFailed    = "failed"
)

// ErrNoRoute у топика нет получателя
var ErrNoRoute = errors.New("outboxrelay: no route for topic")

// Config настройки relay
type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Result итог одного прохода
type Result struct {
	Published int
	Retried   int
	Failed    int
}

// Relay фоновый процесс доставки outbox
type Relay struct {
	outboxRepo   OutboxRepository
	txManager    TxManager
	routes       map[string]DeliverFunc
	timeProvider TimeProvider
	cfg          Config
	metrics      Metrics
	logger       Logger
}

// New создает relay. routes сопоставляет топик и получателя.
func New(
	outboxRepo OutboxRepository,
	txManager TxManager,
	routes map[string]DeliverFunc,
	timeProvider TimeProvider,
	cfg Config,
	metrics Metrics,
	logger Logger,
) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = defaultBaseBackoff
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = max(defaultMaxBackoff, cfg.BaseBackoff)
	}
	return &Relay{
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		routes:       routes,
		timeProvider: timeProvider,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run выполняет проходы до отмены ctx. Полная пачка означает, что
// в очереди остались события, и следующий проход запускается сразу.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("Outbox relay: started, interval=%s batch=%d", r.cfg.Interval, r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		res, err := r.Tick(ctx)
		if err != nil {
			r.logger.Error("Outbox relay: tick failed: %v", err)
		}
		if err == nil && res.total() >= r.cfg.BatchSize && ctx.Err() == nil {
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay: stopped")
			return
		case <-ticker.C:
		}
	}
}

func (res Result) total() int {
	return res.Published + res.Retried + res.Failed
}

// Tick захватывает пачку готовых к доставке событий и доставляет их
func (r *Relay) Tick(ctx context.Context) (Result, error) {
	var res Result

	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		res = Result{}
		now := r.timeProvider.Now()

		events, err := r.outboxRepo.FetchPending(ctx, now, r.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}

		for _, e := range events {
			outcome, err := r.process(ctx, e, now)
			if err != nil {
				return err
			}
			switch outcome {
			case ResultPublished:
				res.Published++
			case ResultRetry:
				res.Retried++
			case ResultFailed:
				res.Failed++
			}
			r.metrics.IncOutbox(e.Topic, outcome)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// process доставляет одно событие и записывает результат
func (r *Relay) process(ctx context.Context, e *domain.OutboxEvent, now time.Time) (string, error) {
	deliverErr := r.deliver(ctx, e)
	if deliverErr == nil {
		if err := r.outboxRepo.MarkPublished(ctx, e.ID, now); err != nil {
			return "", fmt.Errorf("mark published event=%s: %w", e.ID, err)
		}
		return ResultPublished, nil
	}

	attempts := e.Attempts + 1
	lastErr := truncate(deliverErr.Error())

	if isPermanent(deliverErr) || attempts >= r.cfg.MaxAttempts {
		r.logger.Error("Outbox relay: event=%s type=%s topic=%s failed after %d attempts: %v",
			e.ID, e.EventType, e.Topic, attempts, deliverErr)
		if err := r.outboxRepo.MarkFailed(ctx, e.ID, attempts, lastErr); err != nil {
			return "", fmt.Errorf("mark failed event=%s: %w", e.ID, err)
		}
		return ResultFailed, nil
	}

	next := now.Add(r.backoff(attempts))
	r.logger.Warn("Outbox relay: event=%s type=%s topic=%s attempt %d failed, retry at %s: %v",
		e.ID, e.EventType, e.Topic, attempts, next.Format(time.RFC3339), deliverErr)
	if err := r.outboxRepo.MarkRetry(ctx, e.ID, attempts, next, lastErr); err != nil {
		return "", fmt.Errorf("mark retry event=%s: %w", e.ID, err)
	}
	return ResultRetry, nil
}

func (r *Relay) deliver(ctx context.Context, e *domain.OutboxEvent) error {
	deliver, ok := r.routes[e.Topic]
	if !ok || deliver == nil {
		return fmt.Errorf("%w: %q", ErrNoRoute, e.Topic)
	}
	return deliver(ctx, e)
}

// backoff экспоненциальная задержка: base * 2^(attempts-1), не больше MaxBackoff
func (r *Relay) backoff(attempts int) time.Duration {
	d := r.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= r.cfg.MaxBackoff {
			return r.cfg.MaxBackoff
		}
	}
	return d
}

// isPermanent ошибки, которые повтор не исправит
func isPermanent(err error) bool {
	return errors.Is(err, ErrNoRoute) ||
		errors.Is(err, notifier.ErrInvalidEvent) ||
		errors.Is(err, opsgenerator.ErrRejected)
}

func truncate(s string) string {
	if len(s) <= maxErrorLength {
		return s
	}
	return s[:maxErrorLength]
}
