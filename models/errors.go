package models

import "errors"

// Error taxonomy shared by repositories and services. HTTP handlers map these
// to status codes; the ping path deliberately collapses everything key-related
// into ErrUnknownKey so responses never reveal which keys exist.
var (
	// ErrUnknownKey means a ping referenced an api key no channel owns.
	ErrUnknownKey = errors.New("unknown channel key")

	// ErrChannelNotFound means a channel id lookup found nothing.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelExists means a create collided with an existing channel id.
	ErrChannelExists = errors.New("channel already exists")

	// ErrDuplicateKey means a create or key replacement collided with an
	// api key already held by another channel.
	ErrDuplicateKey = errors.New("api key already in use")

	// ErrInvalidKey means a caller-provided api key failed validation
	// (empty). Distinct from ErrDuplicateKey: this is a malformed request,
	// not a collision.
	ErrInvalidKey = errors.New("invalid api key")

	// ErrOutOfOrderEvent means a history append carried a timestamp not
	// after the channel's last recorded event. This indicates clock skew or
	// a logic bug; the append is rejected, never silently reordered.
	ErrOutOfOrderEvent = errors.New("status event out of order")

	// ErrInvalidTimezone means a timezone update carried a name the IANA
	// database does not know.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
