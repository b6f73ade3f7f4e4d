package lock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPropertyKeyIsDeterministic(t *testing.T) {
	id := uuid.MustParse("2f1c7c1e-4b7a-4e0c-9d7e-1a2b3c4d5e6f")

	assert.Equal(t, PropertyKey(id), PropertyKey(id))
	assert.NotEqual(t, PropertyKey(id), PropertyKey(uuid.New()))
}

func TestAcquirePropertyLockRequiresTransaction(t *testing.T) {
	r := NewRepository(nil)
	err := r.AcquirePropertyLock(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotInTransaction)
}
