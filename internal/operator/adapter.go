// Package operator defines the transport contract for reaching a human
// operator on a chat platform (Discord, Slack, etc.).
package operator

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
// Each adapter handles connection management and message sending/receiving for
// a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform and returns the
	// transport message identifier assigned to the delivery. The identifier
	// is the correlation key for operator replies, so adapters must return
	// the exact value the platform will report in InboundMessage.ReplyToID.
	Send(ctx context.Context, msg OutboundMessage) (string, error)

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message received from the chat platform.
type InboundMessage struct {
	Platform    string    // e.g. "slack", "discord"
	ChannelID   string    // platform-specific channel identifier
	TransportID string    // the platform's identifier for this message
	ReplyToID   string    // transport ID of the message being replied to (empty if not a reply)
	UserID      string    // platform-specific user identifier
	UserName    string    // human-readable username
	Text        string    // raw message text
	Timestamp   time.Time // when the message was sent
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID   string // target channel (adapter default if empty)
	Text        string // message text (platform-native formatting)
	ReplyToID   string // send as a reply to this transport message (empty for top-level)
	ReplyPrompt string // non-empty: attach a reply affordance with this label
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
