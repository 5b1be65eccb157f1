package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	clock := FixedClock(at)

	assert.True(t, clock.Now().Equal(at))
	assert.Equal(t, time.UTC, clock.Now().Location())
}

func TestParseRFC3339(t *testing.T) {
	got, err := ParseRFC3339("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseRFC3339("2026-05-01T10:00:00+02:00")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2026-05-01T08:00:00Z", FormatRFC3339(got))

	_, err = ParseRFC3339("yesterday")
	assert.Error(t, err)
}
