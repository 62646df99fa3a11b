package relay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/switchboard/internal/operator"
)

// commandPrefix is the marker that triggers read-only command handling.
const commandPrefix = "!sb"

// isCommand returns true for command-syntax messages: the "!sb" prefix or
// any slash command. Slash commands from other bots are recognized here so
// they never reach reply correlation.
func isCommand(text string) bool {
	return text == commandPrefix ||
		strings.HasPrefix(text, commandPrefix+" ") ||
		strings.HasPrefix(text, "/")
}

// handleCommand dispatches a command message and sends the response.
// All commands are read-only introspection; errors never propagate.
func (s *Service) handleCommand(ctx context.Context, msg operator.InboundMessage, text string) {
	var response string
	switch {
	case text == "/start":
		response = s.cmdStart(msg)
	case strings.HasPrefix(text, "/"):
		return // foreign slash command, not ours
	default:
		args := parseCommand(text)
		if len(args) == 0 {
			response = helpText()
			break
		}
		switch args[0] {
		case "start", "id":
			response = s.cmdStart(msg)
		case "help":
			response = helpText()
		default:
			response = fmt.Sprintf("Unknown command: `%s`\n\n%s", args[0], helpText())
		}
	}

	if _, err := s.adapter.Send(ctx, operator.OutboundMessage{
		ChannelID: msg.ChannelID,
		Text:      response,
	}); err != nil {
		log.Printf("relay: send command response: %v", err)
	}
}

// parseCommand strips the "!sb" prefix and splits the remaining text.
func parseCommand(text string) []string {
	text = strings.TrimSpace(text)
	if text == commandPrefix {
		return nil
	}
	text = strings.TrimPrefix(text, commandPrefix+" ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// cmdStart reports the caller's channel identifier, for wiring the channel
// into the Switchboard config. No relay logic depends on it.
func (s *Service) cmdStart(msg operator.InboundMessage) string {
	return "🤖 Switchboard operator bridge\n\n" +
		"Website visitor messages are relayed to this channel.\n" +
		"Reply to a relayed message to answer the visitor.\n\n" +
		"Your channel ID: " + msg.ChannelID
}

// helpText lists the available commands.
func helpText() string {
	return "Switchboard commands:\n" +
		"  `!sb id` — show this channel's identifier\n" +
		"  `!sb help` — show this help\n\n" +
		"To answer a visitor, reply to their relayed message."
}
