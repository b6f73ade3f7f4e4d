package paymentprovider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Provider платежный провайдер. Все методы синхронные; key передается провайдеру
// как ключ идемпотентности, повторный вызов с тем же key не должен списывать деньги повторно.
type Provider interface {
	Name() string
	Authorize(ctx context.Context, key string, bookingID uuid.UUID, amount int64, currency string) (string, error)
	Capture(ctx context.Context, key string, providerRef string, amount int64) (string, error)
	Refund(ctx context.Context, key string, providerRef *string, refundID uuid.UUID, amount int64, currency string) (string, error)
}

// Registry реестр провайдеров по имени
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry создает реестр с переданными провайдерами
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register добавляет или заменяет провайдера
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get возвращает провайдера по имени
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}
