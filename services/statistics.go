package services

import (
	"fmt"
	"time"

	"lightwatch/models"
	"lightwatch/repositories/interfaces"
)

// dayLayout is the wire format for a local calendar day.
const dayLayout = "2006-01-02"

// StatisticsService computes per-day uptime/downtime totals by replaying the
// status history. It never mutates anything.
type StatisticsService struct {
	channels interfaces.ChannelRepositoryInterface
	history  interfaces.StatusEventRepositoryInterface
}

// NewStatisticsService creates the statistics engine.
func NewStatisticsService(channels interfaces.ChannelRepositoryInterface, history interfaces.StatusEventRepositoryInterface) *StatisticsService {
	return &StatisticsService{
		channels: channels,
		history:  history,
	}
}

// ComputeDailyStats totals ON and OFF time for one local calendar day in the
// channel's timezone. Event spans are clipped at local midnight boundaries;
// when the day contains now, the open span ends at now with the channel's
// current state as the terminal status. A span whose starting status is
// unknown (no event at or before its start, ever) contributes to neither
// bucket, so a channel created mid-day only reports the part of the day it
// was actually observed.
func (ss *StatisticsService) ComputeDailyStats(channelID int64, day string, now time.Time) (*models.DailyStats, error) {
	channel, err := ss.channels.Get(channelID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(channel.Timezone)
	if err != nil {
		return nil, fmt.Errorf("channel %d has unloadable timezone %q: %w", channelID, channel.Timezone, err)
	}

	dayStart, err := time.ParseInLocation(dayLayout, day, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	// AddDate survives DST days that are not 24 hours long.
	dayEnd := dayStart.AddDate(0, 0, 1)

	stats := &models.DailyStats{
		ChannelID: channelID,
		Day:       day,
		Timezone:  channel.Timezone,
	}

	if !now.After(dayStart) {
		// The day hasn't started yet in the channel's timezone.
		return stats, nil
	}

	end := dayEnd
	if now.Before(dayEnd) {
		end = now
	}

	events, err := ss.history.Query(channelID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	prior, err := ss.history.LastBefore(channelID, dayStart)
	if err != nil {
		return nil, err
	}

	known := prior != nil
	current := known && prior.Status

	cursor := dayStart
	for i := range events {
		at := events[i].Timestamp
		if at.After(end) {
			break
		}
		if known {
			addSpan(stats, current, at.Sub(cursor))
		}
		cursor = at
		current = events[i].Status
		known = true
	}

	if known && end.After(cursor) {
		// Terminal open span. When the day contains now this runs up to
		// now with the channel's current state, which by construction
		// equals the status of the last event.
		addSpan(stats, current, end.Sub(cursor))
	}

	return stats, nil
}

func addSpan(stats *models.DailyStats, powerOn bool, d time.Duration) {
	if d <= 0 {
		return
	}
	if powerOn {
		stats.Uptime += d
	} else {
		stats.Downtime += d
	}
}
