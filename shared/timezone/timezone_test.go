package timezone_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/shared/timezone"
)

func TestNowUsesAppLocation(t *testing.T) {
	assert.Equal(t, timezone.GetLocation(), timezone.Now().Location())
}

func TestParseAndFormatRoundTrip(t *testing.T) {
	parsed, err := timezone.Parse("2006-01-02 15:04", "2026-05-01 10:30")
	require.NoError(t, err)

	assert.Equal(t, "2026-05-01 10:30", timezone.Format(parsed, "2006-01-02 15:04"))
	assert.Equal(t, timezone.GetLocation(), parsed.Location())
}

func TestStartOfDay(t *testing.T) {
	instant := time.Date(2026, 5, 1, 17, 45, 12, 0, timezone.GetLocation())

	day := timezone.StartOfDay(instant)

	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, timezone.GetLocation()), day)
}
