package interfaces

import (
	"time"

	"lightwatch/models"

	"gorm.io/gorm"
)

// StatusEventRepositoryInterface defines the contract for the append-only
// status history. Events are immutable once written and strictly ordered by
// timestamp per channel.
type StatusEventRepositoryInterface interface {
	// Append writes one status event inside the caller's transaction.
	// Returns models.ErrOutOfOrderEvent when the event's timestamp is not
	// after the channel's most recent recorded event.
	Append(tx *gorm.DB, event *models.StatusEvent) error

	// Query returns events with since <= timestamp < until, ascending.
	Query(channelID int64, since, until time.Time) ([]models.StatusEvent, error)

	// Recent returns the newest events for a channel, newest first.
	Recent(channelID int64, limit int) ([]models.StatusEvent, error)

	// Last returns the most recent event for a channel, or nil when the
	// channel has no history.
	Last(channelID int64) (*models.StatusEvent, error)

	// LastBefore returns the most recent event strictly before t, or nil.
	LastBefore(channelID int64, t time.Time) (*models.StatusEvent, error)

	// DeleteForChannel removes a channel's entire history. Used only by
	// channel removal, which cascades by policy.
	DeleteForChannel(tx *gorm.DB, channelID int64) error
}
