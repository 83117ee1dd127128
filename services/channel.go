package services

import (
	"fmt"
	"log/slog"
	"time"

	"lightwatch/database"
	"lightwatch/models"
	"lightwatch/repositories/interfaces"
	"lightwatch/utils"
)

// ChannelService owns channel lifecycle and configuration. Status mutation
// stays with LivenessService; this service never touches IsPowerOn or the
// history except for the cascade on removal.
type ChannelService struct {
	channels interfaces.ChannelRepositoryInterface
	history  interfaces.StatusEventRepositoryInterface
	uow      database.UnitOfWorkInterface
	locks    *channelLocks
	logger   *slog.Logger
}

// NewChannelService creates the channel admin service. It shares the liveness
// engine's lock table so key mutations serialize with pings and sweeps on the
// same channel.
func NewChannelService(db *database.Database, liveness *LivenessService, logger *slog.Logger) *ChannelService {
	return NewChannelServiceWithRepos(db.ChannelRepo, db.HistoryRepo, db.UoW, liveness.locks, logger)
}

// NewChannelServiceWithRepos wires the service against explicit dependencies.
func NewChannelServiceWithRepos(
	channels interfaces.ChannelRepositoryInterface,
	history interfaces.StatusEventRepositoryInterface,
	uow database.UnitOfWorkInterface,
	locks *channelLocks,
	logger *slog.Logger,
) *ChannelService {
	if locks == nil {
		locks = &channelLocks{}
	}
	return &ChannelService{
		channels: channels,
		history:  history,
		uow:      uow,
		locks:    locks,
		logger:   logger.With("component", "channels"),
	}
}

// CreateChannel registers a channel with a freshly generated api key and
// returns the created record, key included. The key is shown once; it is not
// serialized in any other response.
func (cs *ChannelService) CreateChannel(channelID, ownerID int64, name string) (*models.Channel, error) {
	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	return cs.createWithKey(channelID, ownerID, apiKey, name)
}

// ImportChannel registers a channel with a caller-provided key, for devices
// that already carry one.
func (cs *ChannelService) ImportChannel(channelID, ownerID int64, apiKey, name string) (*models.Channel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: empty api key", models.ErrInvalidKey)
	}
	return cs.createWithKey(channelID, ownerID, apiKey, name)
}

func (cs *ChannelService) createWithKey(channelID, ownerID int64, apiKey, name string) (*models.Channel, error) {
	channel := &models.Channel{
		ChannelID:   channelID,
		OwnerID:     ownerID,
		APIKey:      apiKey,
		ChannelName: name,
		Timezone:    "Europe/Kiev",
	}
	if err := cs.channels.Create(channel); err != nil {
		return nil, err
	}
	cs.logger.Info("Channel created", "channelId", channelID, "ownerId", ownerID)
	return channel, nil
}

// GetChannel returns one channel record.
func (cs *ChannelService) GetChannel(channelID int64) (*models.Channel, error) {
	return cs.channels.Get(channelID)
}

// ListChannels returns every channel, or only an owner's channels when
// ownerID is non-zero.
func (cs *ChannelService) ListChannels(ownerID int64) ([]models.Channel, error) {
	if ownerID != 0 {
		return cs.channels.ListByOwner(ownerID)
	}
	return cs.channels.ListAll()
}

// Status builds the read-only status view for one channel.
func (cs *ChannelService) Status(channelID int64, now time.Time) (*models.ChannelStatus, error) {
	channel, err := cs.channels.Get(channelID)
	if err != nil {
		return nil, err
	}
	return channelStatus(channel, now), nil
}

// StatusAll builds status views for all of an owner's channels.
func (cs *ChannelService) StatusAll(ownerID int64, now time.Time) ([]models.ChannelStatus, error) {
	channels, err := cs.ListChannels(ownerID)
	if err != nil {
		return nil, err
	}
	statuses := make([]models.ChannelStatus, 0, len(channels))
	for i := range channels {
		statuses = append(statuses, *channelStatus(&channels[i], now))
	}
	return statuses, nil
}

func channelStatus(channel *models.Channel, now time.Time) *models.ChannelStatus {
	status := &models.ChannelStatus{
		ChannelID:   channel.ChannelID,
		ChannelName: channel.ChannelName,
		Timezone:    channel.Timezone,
		Paused:      channel.Paused,
		IsPowerOn:   channel.IsPowerOn,
	}
	if channel.LastRequestTime != nil {
		status.HasData = true
		status.SinceLastRequest = now.Sub(*channel.LastRequestTime)
	}
	if channel.LastStatusChange != nil {
		status.SinceLastChange = now.Sub(*channel.LastStatusChange)
	}
	return status
}

// RegenerateKey replaces a channel's api key with a new random one and
// returns it. The old key stops working immediately: the update runs inside
// the channel's critical section, and the ping path re-verifies the key under
// the same lock.
func (cs *ChannelService) RegenerateKey(channelID int64) (string, error) {
	apiKey, err := utils.GenerateAPIKey()
	if err != nil {
		return "", err
	}
	if err := cs.setKey(channelID, apiKey); err != nil {
		return "", err
	}
	cs.logger.Info("Channel key regenerated", "channelId", channelID)
	return apiKey, nil
}

// ReplaceKey sets a caller-chosen api key.
func (cs *ChannelService) ReplaceKey(channelID int64, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("%w: empty api key", models.ErrInvalidKey)
	}
	if err := cs.setKey(channelID, apiKey); err != nil {
		return err
	}
	cs.logger.Info("Channel key replaced", "channelId", channelID)
	return nil
}

func (cs *ChannelService) setKey(channelID int64, apiKey string) error {
	lock := cs.locks.lockFor(channelID)
	lock.Lock()
	defer lock.Unlock()

	return cs.channels.Update(nil, channelID, map[string]interface{}{"api_key": apiKey})
}

// TransferOwnership hands the channel to another account.
func (cs *ChannelService) TransferOwnership(channelID, newOwnerID int64) error {
	return cs.channels.Update(nil, channelID, map[string]interface{}{"owner_id": newOwnerID})
}

// SetTimezone updates the timezone used for day-boundary computation. The
// name is validated against the IANA database before it is stored.
func (cs *ChannelService) SetTimezone(channelID int64, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
		return fmt.Errorf("%w: %q", models.ErrInvalidTimezone, timezone)
	}
	return cs.channels.Update(nil, channelID, map[string]interface{}{"timezone": timezone})
}

// SetName updates the display label.
func (cs *ChannelService) SetName(channelID int64, name string) error {
	return cs.channels.Update(nil, channelID, map[string]interface{}{"channel_name": name})
}

// RemoveChannel deletes a channel and, by policy, its entire status history
// in the same transaction (matching the cascade the data has always had).
func (cs *ChannelService) RemoveChannel(channelID int64) error {
	tx := cs.uow.Begin()
	if tx != nil && tx.Error != nil {
		return fmt.Errorf("failed to begin removal: %w", tx.Error)
	}

	if err := cs.history.DeleteForChannel(tx, channelID); err != nil {
		cs.uow.Rollback(tx)
		return err
	}
	if err := cs.channels.Delete(tx, channelID); err != nil {
		cs.uow.Rollback(tx)
		return err
	}
	if err := cs.uow.Commit(tx); err != nil {
		return fmt.Errorf("failed to commit removal: %w", err)
	}

	cs.logger.Info("Channel removed", "channelId", channelID)
	return nil
}

// QueryHistory returns events with since <= timestamp < until, ascending.
func (cs *ChannelService) QueryHistory(channelID int64, since, until time.Time) ([]models.StatusEvent, error) {
	if _, err := cs.channels.Get(channelID); err != nil {
		return nil, err
	}
	return cs.history.Query(channelID, since, until)
}

// RecentHistory returns the newest events, newest first.
func (cs *ChannelService) RecentHistory(channelID int64, limit int) ([]models.StatusEvent, error) {
	if _, err := cs.channels.Get(channelID); err != nil {
		return nil, err
	}
	return cs.history.Recent(channelID, limit)
}
