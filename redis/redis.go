package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lightwatch/config"
	"lightwatch/models"

	"github.com/go-redis/redis/v8"
)

// TransitionChannel is the pub/sub channel the notifier subscribes to.
const TransitionChannel = "lightwatch:transitions"

// statusTTL bounds how long a cached status outlives its last transition.
const statusTTL = 24 * time.Hour

// RedisClient caches per-channel status and publishes transitions for the
// external notification consumer. It implements services.EventSink.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	// Test connection
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: rdb,
		ctx:    ctx,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func statusKey(channelID int64) string {
	return fmt.Sprintf("channel:status:%d", channelID)
}

// SaveChannelStatus caches the channel's current state for cheap reads by
// status pages. The database stays the source of truth.
func (r *RedisClient) SaveChannelStatus(channelID int64, powerOn bool, changedAt time.Time) error {
	statusInfo := map[string]interface{}{
		"powerOn":   powerOn,
		"changedAt": changedAt.Unix(),
	}

	infoJSON, err := json.Marshal(statusInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal status info: %w", err)
	}

	err = r.client.Set(r.ctx, statusKey(channelID), infoJSON, statusTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to save channel status to Redis: %w", err)
	}

	return nil
}

// GetChannelStatus reads the cached state. The bool result reports a cache
// hit; a miss is not an error.
func (r *RedisClient) GetChannelStatus(channelID int64) (bool, bool, error) {
	val, err := r.client.Get(r.ctx, statusKey(channelID)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to get channel status from Redis: %w", err)
	}

	var statusInfo struct {
		PowerOn bool `json:"powerOn"`
	}
	if err := json.Unmarshal([]byte(val), &statusInfo); err != nil {
		return false, false, fmt.Errorf("failed to unmarshal status info: %w", err)
	}

	return statusInfo.PowerOn, true, nil
}

// EmitTransition publishes a committed transition and refreshes the status
// cache. Publication is at-least-once; the subscriber deduplicates if it
// cares.
func (r *RedisClient) EmitTransition(event *models.TransitionEvent) error {
	if err := r.SaveChannelStatus(event.ChannelID, event.PowerOn, event.Timestamp); err != nil {
		return err
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transition event: %w", err)
	}

	if err := r.client.Publish(r.ctx, TransitionChannel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish transition event: %w", err)
	}

	return nil
}
