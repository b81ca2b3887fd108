package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_Ordered(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_schema.sql", "0002_bookings.sql"}, files)
}

func TestFiles_BookingsDependOnSchema(t *testing.T) {
	b, err := fs.ReadFile("0002_bookings.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "REFERENCES venues(id)")
	assert.Contains(t, string(b), "payments_transaction_uidx")
}
