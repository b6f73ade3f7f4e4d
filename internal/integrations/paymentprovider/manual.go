package paymentprovider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ManualName имя провайдера, используемого по умолчанию
const ManualName = "manual"

var manualNamespace = uuid.MustParse("8f7c6c1e-3b1a-4c55-9a61-6f3d1f0b2a10")

// Manual провайдер без внешнего шлюза: деньги проводятся оператором вручную.
// Ссылка детерминирована ключом идемпотентности: повтор возвращает ту же ссылку.
type Manual struct {
	mu    sync.Mutex
	seen  map[string]string
	calls int
}

// NewManual создает провайдер manual
func NewManual() *Manual {
	return &Manual{seen: make(map[string]string)}
}

func (m *Manual) Name() string {
	return ManualName
}

func (m *Manual) Authorize(_ context.Context, key string, _ uuid.UUID, amount int64, currency string) (string, error) {
	if amount <= 0 || currency == "" {
		return "", fmt.Errorf("%w: amount=%d currency=%q", ErrInvalidRequest, amount, currency)
	}
	return m.reference("auth", key), nil
}

func (m *Manual) Capture(_ context.Context, key string, providerRef string, _ int64) (string, error) {
	if providerRef == "" {
		return "", fmt.Errorf("%w: capture without authorization reference", ErrInvalidRequest)
	}
	return m.reference("cap", key), nil
}

func (m *Manual) Refund(_ context.Context, key string, _ *string, _ uuid.UUID, amount int64, _ string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("%w: refund amount=%d", ErrInvalidRequest, amount)
	}
	return m.reference("ref", key), nil
}

// Calls количество уникальных операций, принятых провайдером
func (m *Manual) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Manual) reference(prefix, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref, ok := m.seen[key]; ok {
		return ref
	}
	ref := "manual_" + prefix + "_" + uuid.NewSHA1(manualNamespace, []byte(key)).String()
	m.seen[key] = ref
	m.calls++
	return ref
}
