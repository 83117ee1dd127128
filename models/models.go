package models

import (
	"time"
)

// Database Models

// Channel is the current-state record for one monitored power source.
// IsPowerOn and LastStatusChange are only mutated together by the liveness
// service; LastRequestTime is only advanced by accepted pings.
type Channel struct {
	ChannelID   int64  `gorm:"primaryKey;autoIncrement:false" json:"channelId"`
	OwnerID     int64  `gorm:"index" json:"ownerId"`
	APIKey      string `gorm:"uniqueIndex;size:64" json:"-"`
	ChannelName string `json:"channelName"`
	Timezone    string `gorm:"default:Europe/Kiev" json:"timezone"`
	Paused      bool   `json:"paused"`

	LastRequestTime  *time.Time `json:"lastRequestTime"`
	IsPowerOn        bool       `json:"isPowerOn"`
	LastStatusChange *time.Time `json:"lastStatusChange"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusEvent is one row of the append-only status history. Timestamp is the
// moment the transition happened, which for timeout-detected OFF events is
// earlier than the moment the sweep noticed it.
type StatusEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID int64     `gorm:"index:idx_channel_ts,priority:1" json:"channelId"`
	Status    bool      `json:"status"`
	Timestamp time.Time `gorm:"index:idx_channel_ts,priority:2" json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// TransitionEvent is handed to the event sink after a state change has been
// committed. Duration is how long the previous state lasted; DurationKnown is
// false for the very first transition of a channel.
type TransitionEvent struct {
	ChannelID     int64         `json:"channelId"`
	ChannelName   string        `json:"channelName,omitempty"`
	PowerOn       bool          `json:"powerOn"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      time.Duration `json:"duration"`
	DurationKnown bool          `json:"durationKnown"`
}

// ChannelStatus is the read-only status view served to API consumers.
type ChannelStatus struct {
	ChannelID        int64         `json:"channelId"`
	ChannelName      string        `json:"channelName,omitempty"`
	Timezone         string        `json:"timezone"`
	Paused           bool          `json:"paused"`
	IsPowerOn        bool          `json:"isPowerOn"`
	HasData          bool          `json:"hasData"`
	SinceLastRequest time.Duration `json:"sinceLastRequest"`
	SinceLastChange  time.Duration `json:"sinceLastChange"`
}

// DailyStats holds the uptime/downtime totals for one local calendar day.
type DailyStats struct {
	ChannelID int64         `json:"channelId"`
	Day       string        `json:"day"`
	Timezone  string        `json:"timezone"`
	Uptime    time.Duration `json:"uptime"`
	Downtime  time.Duration `json:"downtime"`
}
