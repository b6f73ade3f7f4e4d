package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	"github.com/m04kA/SMC-StayBookingService/internal/service/payments/models"
)

// Результаты операций для метрик
const (
	resultSucceeded = "succeeded"
	resultReused    = "reused"
	resultFailed    = "failed"
	resultExpired   = "expired"
	resultRejected  = "rejected"
	resultError     = "error"
)

// Service платежный автомат: авторизация, списание и возвраты.
// Каждая операция проходит три шага: транзакция начала с записью PENDING события,
// вызов провайдера с сохранением ссылки, транзакция завершения.
type Service struct {
	bookingRepo  BookingRepository
	paymentRepo  PaymentRepository
	refundRepo   RefundRepository
	outboxRepo   OutboxRepository
	providers    ProviderRegistry
	txManager    TxManager
	timeProvider TimeProvider
	metrics      Metrics
	logger       Logger

	defaultProvider string
}

// NewService создает новый экземпляр платежного сервиса
func NewService(
	bookingRepo BookingRepository,
	paymentRepo PaymentRepository,
	refundRepo RefundRepository,
	outboxRepo OutboxRepository,
	providers ProviderRegistry,
	txManager TxManager,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		paymentRepo:  paymentRepo,
		refundRepo:   refundRepo,
		outboxRepo:   outboxRepo,
		providers:    providers,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,

		defaultProvider: domain.ProviderManual,
	}
}

// SetDefaultProvider задает провайдера для авторизации без явного provider
func (s *Service) SetDefaultProvider(name string) {
	if name = strings.TrimSpace(name); name != "" {
		s.defaultProvider = name
	}
}

// attempt состояние операции между транзакцией начала и транзакцией завершения
type attempt struct {
	booking *domain.Booking
	payment *domain.Payment
	refund  *domain.Refund
	event   *domain.PaymentEvent
	expired bool
}

func resolveKey(key *string, eventType domain.PaymentEventType, id uuid.UUID) (string, error) {
	if key == nil || strings.TrimSpace(*key) == "" {
		return models.DefaultKey(eventType, id), nil
	}
	k := strings.TrimSpace(*key)
	if len(k) > domain.MaxIdempotencyKeyLength {
		return "", fmt.Errorf("%w: idempotency key is longer than %d characters", ErrInvalidInput, domain.MaxIdempotencyKeyLength)
	}
	return k, nil
}

// canPay оплачивать может клиент-владелец бронирования или администратор
func canPay(actor domain.Actor, b *domain.Booking) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == domain.RoleCustomer && b.CustomerID == actor.UserID
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultSucceeded
	case errors.Is(err, domain.ErrProvider):
		return resultFailed
	case errors.Is(err, domain.ErrPaymentWindowElapsed):
		return resultExpired
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidState):
		return resultRejected
	}
	return resultError
}

func (s *Service) getBookingForUpdate(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByIDForUpdate(ctx, id)
	if errors.Is(err, bookingRepo.ErrBookingNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get booking: %v", ErrInternal, err)
	}
	return b, nil
}

// findEvent возвращает запись журнала по ключу или nil, если ее нет
func (s *Service) findEvent(ctx context.Context, paymentID uuid.UUID, eventType domain.PaymentEventType, key string) (*domain.PaymentEvent, error) {
	e, err := s.paymentRepo.GetEventForUpdate(ctx, paymentID, eventType, key)
	if errors.Is(err, paymentRepo.ErrEventNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get payment event: %v", ErrInternal, err)
	}
	return e, nil
}

func (s *Service) startEvent(ctx context.Context, e *domain.PaymentEvent) (*domain.PaymentEvent, error) {
	e.ID = uuid.New()
	e.Status = domain.EventPending
	stored, _, err := s.paymentRepo.InsertEventOrGet(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%w: insert payment event: %v", ErrInternal, err)
	}
	return stored, nil
}

// recordAccepted пишет в журнал успешную операцию без обращения к провайдеру:
// результат уже достигнут другой попыткой с иным ключом.
func (s *Service) recordAccepted(ctx context.Context, e *domain.PaymentEvent) (*domain.PaymentEvent, error) {
	e.ID = uuid.New()
	e.Status = domain.EventSucceeded
	stored, _, err := s.paymentRepo.InsertEventOrGet(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("%w: insert accepted payment event: %v", ErrInternal, err)
	}
	return stored, nil
}

// alreadyFunded true, если деньги по платежу уже авторизованы или списаны
// и бронирование находится в согласованном с этим статусе
func alreadyFunded(b *domain.Booking, p *domain.Payment) bool {
	switch p.Status {
	case domain.PaymentAuthorized:
		return b.Status == domain.BookingPendingPayment
	case domain.PaymentCaptured:
		return b.Status == domain.BookingConfirmed || b.Status == domain.BookingCompleted
	default:
		return false
	}
}

// expireBooking отменяет бронирование с истекшим окном оплаты так же, как это делает sweeper
func (s *Service) expireBooking(ctx context.Context, b *domain.Booking, now time.Time) error {
	reason := string(domain.ReasonPaymentExpired)
	if err := s.bookingRepo.Cancel(ctx, b.ID, domain.BookingPendingPayment, now, nil, reason); err != nil {
		return fmt.Errorf("%w: expire booking: %v", ErrInternal, err)
	}

	expired := *b
	expired.Status = domain.BookingCancelled
	expired.CancelledAt = &now
	expired.CancellationReason = &reason

	events, err := domain.NewExpiryEvents(&expired, now)
	if err != nil {
		return fmt.Errorf("%w: build expiry events: %v", ErrInternal, err)
	}
	if err := s.outboxRepo.Enqueue(ctx, events...); err != nil {
		return fmt.Errorf("%w: enqueue expiry events: %v", ErrInternal, err)
	}
	return nil
}

// callProvider вызывает провайдера, если ссылка еще не получена, и сразу сохраняет ее в журнале.
// Сохранение выполняется вне транзакции: после сбоя повтор завершит операцию без нового вызова.
func (s *Service) callProvider(
	ctx context.Context,
	op string,
	e *domain.PaymentEvent,
	call func(key string) (string, error),
) (string, error) {
	if e.ProviderRef != nil {
		s.logger.Info("%s: event=%s already has provider ref, finalizing without provider call", op, e.ID)
		return *e.ProviderRef, nil
	}

	ref, err := call(e.ProviderKey())
	if err != nil {
		return "", err
	}

	if err := s.paymentRepo.RecordEventProviderRef(ctx, e.ID, ref); err != nil {
		// ссылку еще раз запишет транзакция завершения, провайдер дедуплицирует ключ при повторе
		s.logger.Warn("%s: failed to record provider ref for event=%s: %v", op, e.ID, err)
	}
	return ref, nil
}

func (s *Service) failEvent(ctx context.Context, e *domain.PaymentEvent, cause error) error {
	msg := cause.Error()
	if err := s.paymentRepo.CompleteEvent(ctx, e.ID, domain.EventFailed, nil, &msg); err != nil {
		return fmt.Errorf("%w: fail event: %v", ErrInternal, err)
	}
	return nil
}

func (s *Service) completeEvent(ctx context.Context, e *domain.PaymentEvent, ref string) error {
	if err := s.paymentRepo.CompleteEvent(ctx, e.ID, domain.EventSucceeded, &ref, nil); err != nil {
		return fmt.Errorf("%w: complete event: %v", ErrInternal, err)
	}
	e.Status = domain.EventSucceeded
	e.ProviderRef = &ref
	return nil
}

// replayedFailure ошибка для повтора операции, уже завершившейся отказом провайдера
func replayedFailure(e *domain.PaymentEvent) error {
	msg := "unknown error"
	if e.Error != nil {
		msg = *e.Error
	}
	return fmt.Errorf("%w: event %s failed earlier: %s", ErrProviderFailed, e.ID, msg)
}

func (s *Service) replayPayment(ctx context.Context, bookingID uuid.UUID, e *domain.PaymentEvent) (*models.PaymentResult, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload booking: %v", ErrInternal, err)
	}
	p, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload payment: %v", ErrInternal, err)
	}
	return &models.PaymentResult{Booking: b, Payment: p, Event: e, Reused: true}, nil
}

func (s *Service) finish(op string, err error) {
	s.metrics.IncPayment(op, resultOf(err))
}
