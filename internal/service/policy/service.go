package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	policyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/policy"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
	"github.com/m04kA/SMC-StayBookingService/internal/service/policy/models"
)

// Service сервис политик отмены: выбор действующей версии и управление версиями
type Service struct {
	policyRepo   PolicyRepository
	propertyRepo PropertyRepository
	txManager    TxManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса политик
func NewService(
	policyRepo PolicyRepository,
	propertyRepo PropertyRepository,
	txManager TxManager,
	logger Logger,
) *Service {
	return &Service{
		policyRepo:   policyRepo,
		propertyRepo: propertyRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Effective возвращает действующую политику объекта: политика объекта, иначе глобальная,
// иначе встроенная по умолчанию. Может вызываться внутри транзакции.
func (s *Service) Effective(ctx context.Context, propertyID uuid.UUID) (*domain.CancellationPolicy, error) {
	p, err := s.policyRepo.GetEffective(ctx, propertyID)
	if errors.Is(err, policyRepo.ErrPolicyNotFound) {
		return domain.DefaultCancellationPolicy(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Effective - repository error: %v", ErrInternal, err)
	}
	return p, nil
}

// GetForProperty возвращает действующую политику объекта.
// Публичный метод - доступен всем
func (s *Service) GetForProperty(ctx context.Context, propertyID uuid.UUID) (*models.PolicyResponse, error) {
	s.logger.Info("GetForProperty: fetching policy for property=%s", propertyID)

	if _, err := s.getProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	p, err := s.Effective(ctx, propertyID)
	if err != nil {
		s.logger.Error("GetForProperty: failed to resolve policy for property=%s: %v", propertyID, err)
		return nil, err
	}

	s.logger.Info("GetForProperty: property=%s uses version=%d", propertyID, p.Version)
	return models.FromDomain(p), nil
}

// UpdateForProperty создает новую версию политики объекта.
// Доступно вендору-владельцу объекта и администратору
func (s *Service) UpdateForProperty(
	ctx context.Context,
	actor domain.Actor,
	propertyID uuid.UUID,
	req *models.UpdatePolicyRequest,
) (*models.PolicyResponse, error) {
	s.logger.Info("UpdateForProperty: property=%s by user=%d role=%s", propertyID, actor.UserID, actor.Role)

	// 1. Проверяем объект и права
	property, err := s.getProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Role == domain.RoleVendor && property.IsOwnedBy(actor.UserID)) {
		s.logger.Warn("UpdateForProperty: user=%d is not allowed to manage property=%s", actor.UserID, propertyID)
		return nil, ErrAccessDenied
	}

	// 2. Создаем версию
	return s.createVersion(ctx, "UpdateForProperty", req.ToDomain(&propertyID, actor.UserID))
}

// UpdateGlobal создает новую версию глобальной политики. Только для администратора
func (s *Service) UpdateGlobal(ctx context.Context, actor domain.Actor, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	s.logger.Info("UpdateGlobal: by user=%d role=%s", actor.UserID, actor.Role)

	if !actor.IsAdmin() {
		s.logger.Warn("UpdateGlobal: user=%d is not an admin", actor.UserID)
		return nil, ErrAccessDenied
	}
	return s.createVersion(ctx, "UpdateGlobal", req.ToDomain(nil, actor.UserID))
}

func (s *Service) createVersion(ctx context.Context, op string, p *domain.CancellationPolicy) (*models.PolicyResponse, error) {
	if err := p.Validate(); err != nil {
		s.logger.Warn("%s: validation failed: %v", op, err)
		return nil, err
	}

	var created *domain.CancellationPolicy
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.policyRepo.CreateVersion(ctx, p)
		return err
	})
	if err != nil {
		s.logger.Error("%s: repository error: %v", op, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.logger.Info("%s: created policy id=%s version=%d", op, created.ID, created.Version)
	return models.FromDomain(created), nil
}

func (s *Service) getProperty(ctx context.Context, propertyID uuid.UUID) (*domain.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, propertyRepo.ErrPropertyNotFound) {
			s.logger.Warn("property id=%s not found", propertyID)
			return nil, ErrPropertyNotFound
		}
		s.logger.Error("failed to get property id=%s: %v", propertyID, err)
		return nil, fmt.Errorf("%w: failed to get property: %v", ErrInternal, err)
	}
	return property, nil
}
