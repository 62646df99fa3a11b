package relay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/switchboard/internal/operator"
)

// HandleInbound classifies and processes a single inbound operator message.
// Routing paths:
//  1. Bot self-message → ignore
//  2. Command marker ("!sb ..." or "/...") → command handler
//  3. Reply to a relayed message → correlate and queue for the widget
//  4. Everything else → ignore (only reply-chain messages carry correlation)
func (s *Service) HandleInbound(ctx context.Context, msg operator.InboundMessage) {
	if s.isSelfMessage(msg) {
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if isCommand(text) {
		s.handleCommand(ctx, msg, text)
		return
	}

	if msg.ReplyToID == "" {
		fmt.Fprintf(s.out, "relay: ignore non-reply from %s\n", msg.UserName)
		return
	}

	orig, ok := s.store.LookupTransportID(msg.ReplyToID)
	if !ok {
		// The reply cannot be attributed to any relayed message. Dropped by
		// design; the operator gets no feedback.
		fmt.Fprintf(s.out, "relay: drop unattributable reply (transport id %s)\n", msg.ReplyToID)
		return
	}

	reply := s.store.AddOperatorReply(text, orig.SessionKey, msg.ChannelID)
	fmt.Fprintf(s.out, "relay: reply %d queued for session %s\n", reply.ID, orig.SessionKey)

	// Confirm to the operator, threaded under their reply where the platform
	// supports it. Best effort.
	if _, err := s.adapter.Send(ctx, operator.OutboundMessage{
		ChannelID: msg.ChannelID,
		ReplyToID: msg.TransportID,
		Text:      "✅ Reply saved — it will be delivered to the visitor.",
	}); err != nil {
		log.Printf("relay: send reply confirmation: %v", err)
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (s *Service) isSelfMessage(msg operator.InboundMessage) bool {
	return s.botUserID != "" && msg.UserID == s.botUserID
}
