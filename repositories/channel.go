package repositories

import (
	"errors"
	"fmt"

	"lightwatch/models"
	"lightwatch/repositories/interfaces"

	"gorm.io/gorm"
)

// ChannelRepository implements ChannelRepositoryInterface.
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new instance of ChannelRepository.
func NewChannelRepository(db *gorm.DB) interfaces.ChannelRepositoryInterface {
	return &ChannelRepository{
		db: db,
	}
}

func (cr *ChannelRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

// Get retrieves a channel by id.
func (cr *ChannelRepository) Get(channelID int64) (*models.Channel, error) {
	var channel models.Channel
	err := cr.db.Where("channel_id = ?", channelID).First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get channel %d: %w", channelID, err)
	}
	return &channel, nil
}

// GetByAPIKey retrieves a channel by its api key. The lookup is an exact
// match against the unique index; a miss surfaces as ErrUnknownKey so the
// ping path can answer without revealing which keys exist.
func (cr *ChannelRepository) GetByAPIKey(apiKey string) (*models.Channel, error) {
	var channel models.Channel
	err := cr.db.Where("api_key = ?", apiKey).First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUnknownKey
		}
		return nil, fmt.Errorf("failed to get channel by key: %w", err)
	}
	return &channel, nil
}

// Create inserts a new channel row.
func (cr *ChannelRepository) Create(channel *models.Channel) error {
	err := cr.db.Create(channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The translated error no longer names the violated
			// constraint, so re-query to tell an api key collision
			// apart from a channel id collision.
			var taken int64
			countErr := cr.db.Model(&models.Channel{}).
				Where("api_key = ?", channel.APIKey).
				Count(&taken).Error
			if countErr == nil && taken > 0 {
				return models.ErrDuplicateKey
			}
			return models.ErrChannelExists
		}
		return fmt.Errorf("failed to create channel %d: %w", channel.ChannelID, err)
	}
	return nil
}

// Update applies the given columns to one channel row.
func (cr *ChannelRepository) Update(tx *gorm.DB, channelID int64, fields map[string]interface{}) error {
	result := cr.conn(tx).Model(&models.Channel{}).Where("channel_id = ?", channelID).Updates(fields)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to update channel %d: %w", channelID, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrChannelNotFound
	}
	return nil
}

// Delete removes a channel row.
func (cr *ChannelRepository) Delete(tx *gorm.DB, channelID int64) error {
	result := cr.conn(tx).Where("channel_id = ?", channelID).Delete(&models.Channel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel %d: %w", channelID, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrChannelNotFound
	}
	return nil
}

// ListActive returns the sweep working set: channels that are ON and not
// paused. Keeping this filtered in SQL keeps sweep cost proportional to the
// number of lit channels, not the table size.
func (cr *ChannelRepository) ListActive() ([]models.Channel, error) {
	var channels []models.Channel
	err := cr.db.Where("is_power_on = ? AND paused = ?", true, false).Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active channels: %w", err)
	}
	return channels, nil
}

// ListByOwner returns all channels owned by the given account.
func (cr *ChannelRepository) ListByOwner(ownerID int64) ([]models.Channel, error) {
	var channels []models.Channel
	err := cr.db.Where("owner_id = ?", ownerID).Order("channel_id").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list channels for owner %d: %w", ownerID, err)
	}
	return channels, nil
}

// ListAll returns every channel.
func (cr *ChannelRepository) ListAll() ([]models.Channel, error) {
	var channels []models.Channel
	err := cr.db.Order("channel_id").Find(&channels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}
