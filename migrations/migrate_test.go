package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
}

func TestInitMigrationDeclaresConstraints(t *testing.T) {
	body, err := migrationFiles.ReadFile("0001_init.sql")
	require.NoError(t, err)

	sql := string(body)
	for _, constraint := range []string{
		"bookings_customer_idempotency_key",
		"bookings_no_overlap",
		"payment_events_scope_key",
		"booking_cancellations_booking_id_key",
		"payments_booking_id_key",
	} {
		assert.Contains(t, sql, constraint)
	}
}
