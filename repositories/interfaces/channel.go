package interfaces

import (
	"lightwatch/models"

	"gorm.io/gorm"
)

// ChannelRepositoryInterface defines the contract for channel persistence.
// Methods taking a *gorm.DB participate in a caller-owned transaction; a nil
// tx means the write runs against the base connection.
type ChannelRepositoryInterface interface {
	// Get retrieves a channel by id. Returns models.ErrChannelNotFound
	// when no such channel exists.
	Get(channelID int64) (*models.Channel, error)

	// GetByAPIKey retrieves a channel by its api key. Returns
	// models.ErrUnknownKey when no channel owns the key.
	GetByAPIKey(apiKey string) (*models.Channel, error)

	// Create inserts a new channel. Returns models.ErrChannelExists on an
	// id collision and models.ErrDuplicateKey on an api key collision.
	Create(channel *models.Channel) error

	// Update applies the given column set to one channel row. Returns
	// models.ErrChannelNotFound when the row does not exist and
	// models.ErrDuplicateKey when an api key update collides.
	Update(tx *gorm.DB, channelID int64, fields map[string]interface{}) error

	// Delete removes the channel row.
	Delete(tx *gorm.DB, channelID int64) error

	// ListActive returns channels eligible for the timeout sweep:
	// currently ON and not paused.
	ListActive() ([]models.Channel, error)

	// ListByOwner returns all channels owned by the given account.
	ListByOwner(ownerID int64) ([]models.Channel, error)

	// ListAll returns every channel.
	ListAll() ([]models.Channel, error)
}
