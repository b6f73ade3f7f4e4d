package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
	"github.com/m04kA/SMC-StayBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy"
)

// Service сервис чтения бронирований
type Service struct {
	bookingRepo  BookingRepository
	propertyRepo PropertyRepository
	policies     PolicyProvider
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	propertyRepo PropertyRepository,
	policies PolicyProvider,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		propertyRepo: propertyRepo,
		policies:     policies,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Проверяет права доступа - клиент видит только своё бронирование,
// вендор - бронирования своих объектов, администратор - любые
func (s *Service) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for user=%d role=%s", id, actor.UserID, actor.Role)

	booking, err := s.getAccessible(ctx, "GetByID", actor, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched booking id=%s", id)
	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Доступно самому пользователю и администратору, опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, actor domain.Actor, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d by user=%d, status=%v", req.UserID, actor.UserID, req.Status)

	if !actor.IsAdmin() && actor.UserID != req.UserID {
		s.logger.Warn("GetUserBookings: user=%d cannot read bookings of user=%d", actor.UserID, req.UserID)
		return nil, ErrAccessDenied
	}

	filter := domain.BookingFilter{CustomerID: &req.UserID}
	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *req.Status)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// GetPropertyBookings получает бронирования объекта с фильтрацией по периоду и статусу.
// Доступно вендору-владельцу объекта и администратору.
// Без статуса и с периодом возвращаются только занимающие календарь бронирования.
func (s *Service) GetPropertyBookings(ctx context.Context, actor domain.Actor, req *models.GetPropertyBookingsRequest) (*models.BookingListResponse, error) {
	logMsg := fmt.Sprintf("GetPropertyBookings: fetching bookings for property=%s, user=%d", req.PropertyID, actor.UserID)
	if req.From != nil && req.To != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	s.logger.Info(logMsg)

	property, err := s.getProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Role == domain.RoleVendor && property.IsOwnedBy(actor.UserID)) {
		s.logger.Warn("GetPropertyBookings: user=%d is not the vendor of property=%s", actor.UserID, req.PropertyID)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetPropertyBookings: invalid filter for property=%s: %v", req.PropertyID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetPropertyBookings: repository error for property=%s: %v", req.PropertyID, err)
		return nil, fmt.Errorf("%w: GetPropertyBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetPropertyBookings: successfully fetched %d bookings for property=%s", len(bookings), req.PropertyID)
	return models.FromDomainBookingList(bookings), nil
}

// CancellationQuote рассчитывает отмену по действующей политике без изменения состояния
func (s *Service) CancellationQuote(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, mode *string) (*models.QuoteResponse, error) {
	s.logger.Info("CancellationQuote: booking=%s by user=%d role=%s", bookingID, actor.UserID, actor.Role)

	var requested *domain.CancellationMode
	if mode != nil && strings.TrimSpace(*mode) != "" {
		m := domain.CancellationMode(strings.ToUpper(strings.TrimSpace(*mode)))
		if !m.Valid() {
			return nil, fmt.Errorf("%w: unknown cancellation mode %q", ErrInvalidInput, *mode)
		}
		requested = &m
	}

	booking, err := s.getAccessible(ctx, "CancellationQuote", actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(domain.BookingCancelled) {
		s.logger.Warn("CancellationQuote: booking=%s is %s", bookingID, booking.Status)
		return nil, domain.NewStateError("booking", booking.ID, booking.Status, "quote cancellation")
	}

	pol, err := s.policies.Effective(ctx, booking.PropertyID)
	if err != nil {
		s.logger.Error("CancellationQuote: failed to resolve policy for property=%s: %v", booking.PropertyID, err)
		return nil, fmt.Errorf("%w: CancellationQuote - resolve policy: %v", ErrInternal, err)
	}

	decision, err := policy.Decide(s.timeProvider.Now(), actor, booking, pol, requested)
	if err != nil {
		s.logger.Warn("CancellationQuote: booking=%s: %v", bookingID, err)
		return nil, err
	}

	s.logger.Info("CancellationQuote: booking=%s tier=%s refundable=%d", bookingID, decision.Tier, decision.RefundableAmount)
	return models.FromDecision(booking.ID, decision), nil
}

// Вспомогательные методы

// getAccessible загружает бронирование и проверяет права доступа
func (s *Service) getAccessible(ctx context.Context, op string, actor domain.Actor, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	if err := s.checkUserAccess(ctx, booking, actor); err != nil {
		s.logger.Warn("%s: access denied for user=%d to booking id=%s", op, actor.UserID, id)
		return nil, err
	}
	return booking, nil
}

// checkUserAccess проверяет, что пользователь имеет доступ к бронированию
func (s *Service) checkUserAccess(ctx context.Context, booking *domain.Booking, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleCustomer:
		if booking.CustomerID == actor.UserID {
			return nil
		}
		return ErrAccessDenied
	case domain.RoleVendor:
		property, err := s.getProperty(ctx, booking.PropertyID)
		if err != nil {
			return err
		}
		if property.IsOwnedBy(actor.UserID) {
			return nil
		}
	}
	return ErrAccessDenied
}

func (s *Service) getProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertyRepo.ErrPropertyNotFound) {
			s.logger.Warn("property id=%s not found", id)
			return nil, ErrPropertyNotFound
		}
		s.logger.Error("failed to get property id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get property: %v", ErrInternal, err)
	}
	return property, nil
}
