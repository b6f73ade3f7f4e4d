package paymentprovider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_SameKeySameReference(t *testing.T) {
	m := NewManual()
	ctx := context.Background()
	bookingID := uuid.New()

	first, err := m.Authorize(ctx, "p1:AUTHORIZE:k1", bookingID, 1000, "USD")
	require.NoError(t, err)
	second, err := m.Authorize(ctx, "p1:AUTHORIZE:k1", bookingID, 1000, "USD")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Calls())

	other, err := m.Authorize(ctx, "p1:AUTHORIZE:k2", bookingID, 1000, "USD")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.Equal(t, 2, m.Calls())
}

func TestManual_RejectsInvalidRequests(t *testing.T) {
	m := NewManual()
	ctx := context.Background()

	_, err := m.Authorize(ctx, "k", uuid.New(), 0, "USD")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = m.Capture(ctx, "k", "", 100)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = m.Refund(ctx, "k", nil, uuid.New(), -1, "USD")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, m.Calls())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(NewManual())

	p, err := r.Get(ManualName)
	require.NoError(t, err)
	assert.Equal(t, ManualName, p.Name())

	_, err = r.Get("stripe")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
