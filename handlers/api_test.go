package handlers

import (
	"net/http"
	"testing"
	"time"

	"lightwatch/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRangeOpenEnds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	since, until, err := historyRange("2026-03-01T00:00:00Z", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), since)
	assert.Equal(t, now, until)

	since, until, err = historyRange("", "2026-03-01T06:00:00Z", now)
	require.NoError(t, err)
	assert.True(t, since.IsZero())
	assert.Equal(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC), until)

	since, until, err = historyRange("2026-03-01T00:00:00Z", "2026-03-01T06:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), since)
	assert.Equal(t, time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC), until)
}

func TestHistoryRangeRejectsBadTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, pair := range [][2]string{
		{"not-a-time", ""},
		{"", "not-a-time"},
		{"2026-03-01", ""}, // date only, not RFC 3339
	} {
		_, _, err := historyRange(pair[0], pair[1], now)
		var appErr *utils.AppError
		require.ErrorAs(t, err, &appErr, "since=%q until=%q", pair[0], pair[1])
		assert.Equal(t, http.StatusBadRequest, appErr.Code)
	}
}
