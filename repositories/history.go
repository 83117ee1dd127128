package repositories

import (
	"errors"
	"fmt"
	"time"

	"lightwatch/models"
	"lightwatch/repositories/interfaces"

	"gorm.io/gorm"
)

// StatusEventRepository implements StatusEventRepositoryInterface.
type StatusEventRepository struct {
	db *gorm.DB
}

// NewStatusEventRepository creates a new instance of StatusEventRepository.
func NewStatusEventRepository(db *gorm.DB) interfaces.StatusEventRepositoryInterface {
	return &StatusEventRepository{
		db: db,
	}
}

func (sr *StatusEventRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return sr.db
}

// Append writes one status event inside the caller's transaction. The
// monotonicity guard runs against the same transaction, so a concurrent
// append for the same channel either serializes behind the channel lock or
// rolls back with the rest of the transition.
func (sr *StatusEventRepository) Append(tx *gorm.DB, event *models.StatusEvent) error {
	db := sr.conn(tx)

	var last models.StatusEvent
	err := db.Where("channel_id = ?", event.ChannelID).
		Order("timestamp desc").Limit(1).First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read last status event: %w", err)
	}
	if err == nil && !event.Timestamp.After(last.Timestamp) {
		return fmt.Errorf("channel %d: event at %s not after %s: %w",
			event.ChannelID, event.Timestamp.Format(time.RFC3339),
			last.Timestamp.Format(time.RFC3339), models.ErrOutOfOrderEvent)
	}

	if err := db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to append status event: %w", err)
	}
	return nil
}

// Query returns events with since <= timestamp < until, ascending.
func (sr *StatusEventRepository) Query(channelID int64, since, until time.Time) ([]models.StatusEvent, error) {
	var events []models.StatusEvent
	err := sr.db.Where("channel_id = ? AND timestamp >= ? AND timestamp < ?", channelID, since, until).
		Order("timestamp asc").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query status events: %w", err)
	}
	return events, nil
}

// Recent returns the newest events for a channel, newest first.
func (sr *StatusEventRepository) Recent(channelID int64, limit int) ([]models.StatusEvent, error) {
	var events []models.StatusEvent
	query := sr.db.Where("channel_id = ?", channelID).Order("timestamp desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent status events: %w", err)
	}
	return events, nil
}

// Last returns the most recent event for a channel, or nil without error
// when the channel has no history yet.
func (sr *StatusEventRepository) Last(channelID int64) (*models.StatusEvent, error) {
	var event models.StatusEvent
	err := sr.db.Where("channel_id = ?", channelID).
		Order("timestamp desc").Limit(1).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last status event: %w", err)
	}
	return &event, nil
}

// LastBefore returns the most recent event strictly before t, or nil.
func (sr *StatusEventRepository) LastBefore(channelID int64, t time.Time) (*models.StatusEvent, error) {
	var event models.StatusEvent
	err := sr.db.Where("channel_id = ? AND timestamp < ?", channelID, t).
		Order("timestamp desc").Limit(1).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status event before %s: %w", t.Format(time.RFC3339), err)
	}
	return &event, nil
}

// DeleteForChannel removes a channel's entire history.
func (sr *StatusEventRepository) DeleteForChannel(tx *gorm.DB, channelID int64) error {
	err := sr.conn(tx).Where("channel_id = ?", channelID).Delete(&models.StatusEvent{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete status events for channel %d: %w", channelID, err)
	}
	return nil
}
