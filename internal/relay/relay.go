package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/switchboard/internal/operator"
)

// ErrEmptyMessage is returned when a client message is empty or whitespace-only.
var ErrEmptyMessage = errors.New("relay: message text is empty")

// ErrDeliveryFailed is returned when the operator-channel send fails. The
// message record is retained but can never be matched to a reply (known gap).
var ErrDeliveryFailed = errors.New("relay: operator delivery failed")

// replyPrompt is the label of the reply affordance attached to relayed
// client messages.
const replyPrompt = "Reply"

// RelayClientMessage forwards one website visitor message to the operator
// channel. It resolves (or creates) the session, stores the record, performs
// exactly one operator-channel send, and links the platform's message ID to
// the record for later reply correlation. Returns the relay message ID.
func (s *Service) RelayClientMessage(ctx context.Context, text, msgType, openlineCode, pageURL string) (uint64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyMessage
	}

	key := SessionKey(openlineCode, pageURL)
	dest := s.store.ResolveDestination(key, s.channel)
	msg := s.store.AddClientMessage(text, key, dest)

	transportID, err := s.adapter.Send(ctx, s.buildOperatorMessage(text, msgType, pageURL, dest))
	if err != nil {
		// Record stays without a transport ID: the text is not lost, but a
		// reply can never be attributed to it.
		log.Printf("relay: message %d orphaned, operator send failed: %v", msg.ID, err)
		return 0, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := s.store.LinkTransportID(msg.ID, transportID); err != nil {
		log.Printf("relay: link message %d: %v", msg.ID, err)
	}

	fmt.Fprintf(s.out, "relay: message %d from session %s forwarded to %s\n", msg.ID, key, dest)
	return msg.ID, nil
}

// buildOperatorMessage formats the operator-facing text. Client messages get
// a preamble and the reply instruction; other types are forwarded plainly.
func (s *Service) buildOperatorMessage(text, msgType, pageURL, dest string) operator.OutboundMessage {
	var b strings.Builder
	if msgType == "client" {
		b.WriteString("📨 Message from a website visitor:\n\n")
		b.WriteString(text)
		if pageURL != "" {
			b.WriteString("\n\nPage: ")
			b.WriteString(pageURL)
		}
		b.WriteString("\n\n💬 Reply to this message to answer the visitor.")
	} else {
		b.WriteString("📨 Message:\n\n")
		b.WriteString(text)
	}
	return operator.OutboundMessage{
		ChannelID:   dest,
		Text:        b.String(),
		ReplyPrompt: replyPrompt,
	}
}
