package services

import (
	"lightwatch/models"
)

// EventSink consumes committed status transitions. Implementations forward
// them to notification consumers (the Telegram notifier reads the Redis
// stream). Delivery is at-least-once; deduplication is the consumer's job.
type EventSink interface {
	EmitTransition(event *models.TransitionEvent) error
}

// NopSink discards transitions. Used when no notifier is configured and in
// tests that don't care about emissions.
type NopSink struct{}

func (NopSink) EmitTransition(*models.TransitionEvent) error { return nil }
