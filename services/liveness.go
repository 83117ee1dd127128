package services

import (
	"fmt"
	"log/slog"
	"time"

	"lightwatch/database"
	"lightwatch/models"
	"lightwatch/repositories/interfaces"
)

// LivenessService derives ON/OFF state from the presence and absence of
// pings. It is the only writer of IsPowerOn, LastStatusChange and the status
// history; both mutations commit in one transaction, and the event sink is
// only told about a transition after that commit.
type LivenessService struct {
	channels interfaces.ChannelRepositoryInterface
	history  interfaces.StatusEventRepositoryInterface
	uow      database.UnitOfWorkInterface
	sink     EventSink
	logger   *slog.Logger

	locks *channelLocks
}

// NewLivenessService creates the liveness engine.
func NewLivenessService(db *database.Database, sink EventSink, logger *slog.Logger) *LivenessService {
	return NewLivenessServiceWithRepos(db.ChannelRepo, db.HistoryRepo, db.UoW, sink, logger)
}

// NewLivenessServiceWithRepos wires the engine against explicit dependencies.
func NewLivenessServiceWithRepos(
	channels interfaces.ChannelRepositoryInterface,
	history interfaces.StatusEventRepositoryInterface,
	uow database.UnitOfWorkInterface,
	sink EventSink,
	logger *slog.Logger,
) *LivenessService {
	if sink == nil {
		sink = NopSink{}
	}
	return &LivenessService{
		channels: channels,
		history:  history,
		uow:      uow,
		sink:     sink,
		logger:   logger.With("component", "liveness"),
		locks:    &channelLocks{},
	}
}

// RecordPing accepts a liveness signal for the channel owning apiKey and
// returns the channel id. A ping against an OFF channel is an ON transition;
// a ping against an ON channel only advances LastRequestTime. Pings are
// accepted while paused: pausing suppresses OFF detection, not ON detection.
func (ls *LivenessService) RecordPing(apiKey string, now time.Time) (int64, error) {
	channel, err := ls.channels.GetByAPIKey(apiKey)
	if err != nil {
		return 0, err
	}

	lock := ls.locks.lockFor(channel.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a sweep may have transitioned the channel
	// between the key lookup and here.
	channel, err = ls.channels.Get(channel.ChannelID)
	if err != nil {
		return 0, err
	}
	if channel.APIKey != apiKey {
		// The key was rotated while this ping waited on the lock; the
		// old key is revoked the instant the rotation commits.
		return 0, models.ErrUnknownKey
	}

	if channel.IsPowerOn {
		// Already ON: no transition, no history, just the heartbeat.
		err = ls.channels.Update(nil, channel.ChannelID, map[string]interface{}{
			"last_request_time": now,
		})
		if err != nil {
			return 0, err
		}
		return channel.ChannelID, nil
	}

	event, err := ls.transition(channel, true, now, map[string]interface{}{
		"last_request_time":  now,
		"is_power_on":        true,
		"last_status_change": now,
	})
	if err != nil {
		return 0, err
	}
	ls.emit(event)
	return channel.ChannelID, nil
}

// Sweep scans ON, non-paused channels and turns silence into OFF
// transitions. The OFF timestamp is last_request_time + timeout, the moment
// the timeout was actually crossed, not the sweep tick that noticed it.
// A failing channel is logged and the scan continues.
func (ls *LivenessService) Sweep(timeout time.Duration, now time.Time) ([]int64, error) {
	active, err := ls.channels.ListActive()
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	var transitioned []int64
	for i := range active {
		channelID := active[i].ChannelID
		flipped, err := ls.sweepChannel(channelID, timeout, now)
		if err != nil {
			ls.logger.Error("Sweep failed for channel",
				"channelId", channelID, slog.Any("error", err))
			continue
		}
		if flipped {
			transitioned = append(transitioned, channelID)
		}
	}
	return transitioned, nil
}

func (ls *LivenessService) sweepChannel(channelID int64, timeout time.Duration, now time.Time) (bool, error) {
	lock := ls.locks.lockFor(channelID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a ping may have raced the sweep tick.
	channel, err := ls.channels.Get(channelID)
	if err != nil {
		return false, err
	}
	if !channel.IsPowerOn || channel.Paused {
		return false, nil
	}
	if channel.LastRequestTime == nil || now.Sub(*channel.LastRequestTime) < timeout {
		return false, nil
	}

	offAt := channel.LastRequestTime.Add(timeout)
	event, err := ls.transition(channel, false, offAt, map[string]interface{}{
		"is_power_on":        false,
		"last_status_change": offAt,
	})
	if err != nil {
		return false, err
	}
	ls.emit(event)
	return true, nil
}

// transition commits one state change: history append plus channel update in
// a single transaction. On any error the transaction rolls back and nothing
// is emitted, so state and history never diverge.
func (ls *LivenessService) transition(channel *models.Channel, powerOn bool, at time.Time, fields map[string]interface{}) (*models.TransitionEvent, error) {
	tx := ls.uow.Begin()
	if tx != nil && tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transition: %w", tx.Error)
	}

	err := ls.history.Append(tx, &models.StatusEvent{
		ChannelID: channel.ChannelID,
		Status:    powerOn,
		Timestamp: at,
	})
	if err != nil {
		ls.uow.Rollback(tx)
		return nil, err
	}

	if err := ls.channels.Update(tx, channel.ChannelID, fields); err != nil {
		ls.uow.Rollback(tx)
		return nil, err
	}

	if err := ls.uow.Commit(tx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}

	event := &models.TransitionEvent{
		ChannelID:   channel.ChannelID,
		ChannelName: channel.ChannelName,
		PowerOn:     powerOn,
		Timestamp:   at,
	}
	if channel.LastStatusChange != nil {
		event.Duration = at.Sub(*channel.LastStatusChange)
		event.DurationKnown = true
	}
	return event, nil
}

func (ls *LivenessService) emit(event *models.TransitionEvent) {
	if err := ls.sink.EmitTransition(event); err != nil {
		ls.logger.Error("Failed to emit transition event",
			"channelId", event.ChannelID, "powerOn", event.PowerOn, slog.Any("error", err))
	}
}

// Pause suppresses OFF detection for a channel. Pings keep being recorded
// and may still flip the channel ON.
func (ls *LivenessService) Pause(channelID int64) error {
	return ls.setPaused(channelID, true)
}

// Resume re-enables OFF detection. The next sweep tick evaluates the
// timeout; resuming does not transition anything by itself.
func (ls *LivenessService) Resume(channelID int64) error {
	return ls.setPaused(channelID, false)
}

func (ls *LivenessService) setPaused(channelID int64, paused bool) error {
	lock := ls.locks.lockFor(channelID)
	lock.Lock()
	defer lock.Unlock()

	return ls.channels.Update(nil, channelID, map[string]interface{}{
		"paused": paused,
	})
}
