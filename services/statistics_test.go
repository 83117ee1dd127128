package services

import (
	"testing"
	"time"

	"lightwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsFixture struct {
	stats    *StatisticsService
	channels *fakeChannelRepo
	history  *fakeHistoryRepo
}

func newStatsFixture(t *testing.T, timezone string) *statsFixture {
	t.Helper()
	channels := newFakeChannelRepo()
	history := newFakeHistoryRepo()
	require.NoError(t, channels.Create(&models.Channel{
		ChannelID: 100,
		APIKey:    "key-100",
		Timezone:  timezone,
	}))
	return &statsFixture{
		stats:    NewStatisticsService(channels, history),
		channels: channels,
		history:  history,
	}
}

func (f *statsFixture) addEvent(t *testing.T, status bool, ts time.Time) {
	t.Helper()
	require.NoError(t, f.history.Append(nil, &models.StatusEvent{
		ChannelID: 100,
		Status:    status,
		Timestamp: ts,
	}))
}

func (f *statsFixture) setPowerOn(t *testing.T, on bool) {
	t.Helper()
	require.NoError(t, f.channels.Update(nil, 100, map[string]interface{}{"is_power_on": on}))
}

func utcTime(day string, hh, mm int) time.Time {
	d, _ := time.Parse("2006-01-02", day)
	return d.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func TestDailyStatsUnknownDayReportsZero(t *testing.T) {
	f := newStatsFixture(t, "UTC")

	// Historical day, no events ever: the status is unknown, not OFF.
	got, err := f.stats.ComputeDailyStats(100, "2026-01-10", utcTime("2026-02-01", 0, 0))
	require.NoError(t, err)
	assert.Zero(t, got.Uptime)
	assert.Zero(t, got.Downtime)
}

func TestDailyStatsFutureDayReportsZero(t *testing.T) {
	f := newStatsFixture(t, "UTC")
	f.addEvent(t, true, utcTime("2026-01-01", 0, 0))

	got, err := f.stats.ComputeDailyStats(100, "2026-03-10", utcTime("2026-02-01", 0, 0))
	require.NoError(t, err)
	assert.Zero(t, got.Uptime)
	assert.Zero(t, got.Downtime)
}

func TestDailyStatsInheritsStatusAcrossEmptyDay(t *testing.T) {
	f := newStatsFixture(t, "UTC")
	// Went ON days earlier and stayed ON.
	f.addEvent(t, true, utcTime("2026-01-05", 9, 0))

	got, err := f.stats.ComputeDailyStats(100, "2026-01-10", utcTime("2026-02-01", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, got.Uptime)
	assert.Zero(t, got.Downtime)
}

func TestDailyStatsClipsSpansAtMidnight(t *testing.T) {
	f := newStatsFixture(t, "UTC")
	f.addEvent(t, false, utcTime("2026-01-09", 20, 0)) // OFF before the day
	f.addEvent(t, true, utcTime("2026-01-10", 6, 0))   // ON at 06:00
	f.addEvent(t, false, utcTime("2026-01-10", 18, 0)) // OFF at 18:00

	got, err := f.stats.ComputeDailyStats(100, "2026-01-10", utcTime("2026-02-01", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, got.Uptime)
	assert.Equal(t, 12*time.Hour, got.Downtime)
}

func TestDailyStatsOpenSpanEndsAtNow(t *testing.T) {
	f := newStatsFixture(t, "UTC")
	f.addEvent(t, false, utcTime("2026-01-09", 23, 0))
	f.addEvent(t, true, utcTime("2026-01-10", 8, 0))
	f.setPowerOn(t, true)

	// It is 10:00 on the queried day: 8h of known OFF, 2h of ON so far.
	got, err := f.stats.ComputeDailyStats(100, "2026-01-10", utcTime("2026-01-10", 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Uptime)
	assert.Equal(t, 8*time.Hour, got.Downtime)
}

func TestDailyStatsUnknownLeadInCountsNothing(t *testing.T) {
	f := newStatsFixture(t, "UTC")
	// The channel's very first event lands mid-day: the morning before it
	// was simply not observed.
	f.addEvent(t, true, utcTime("2026-01-10", 8, 0))
	f.setPowerOn(t, true)

	got, err := f.stats.ComputeDailyStats(100, "2026-01-10", utcTime("2026-01-10", 10, 0))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Uptime)
	assert.Zero(t, got.Downtime)
}

func TestDailyStatsUsesChannelTimezone(t *testing.T) {
	f := newStatsFixture(t, "Europe/Kiev")
	f.addEvent(t, true, utcTime("2026-01-10", 0, 0))
	// 22:30 UTC on Jan 14 is 00:30 local on Jan 15 (UTC+2 in winter).
	f.addEvent(t, false, utcTime("2026-01-14", 22, 30))

	got, err := f.stats.ComputeDailyStats(100, "2026-01-15", utcTime("2026-02-01", 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, got.Uptime)
	assert.Equal(t, 23*time.Hour+30*time.Minute, got.Downtime)
}

func TestDailyStatsRejectsBadInput(t *testing.T) {
	f := newStatsFixture(t, "UTC")

	_, err := f.stats.ComputeDailyStats(100, "not-a-day", utcTime("2026-02-01", 0, 0))
	assert.Error(t, err)

	_, err = f.stats.ComputeDailyStats(999, "2026-01-10", utcTime("2026-02-01", 0, 0))
	assert.ErrorIs(t, err, models.ErrChannelNotFound)
}
