// Package relay implements the Switchboard core: forwarding website visitor
// messages to an operator channel, correlating the operator's reply-chain
// responses back to the originating widget session, and queueing replies for
// pull-based delivery to the widget.
package relay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/zulandar/switchboard/internal/operator"
)

// Archiver receives completed relay traffic (confirmed replies, evicted
// records). Implementations must not block the relay path on failure.
type Archiver interface {
	Archive(msg Message) error
}

// Service is the message relay. It owns the in-memory store and talks to the
// operator channel through an Adapter.
type Service struct {
	store     *Store
	adapter   operator.Adapter
	channel   string // default destination for new sessions
	archiver  Archiver
	botUserID string
	out       io.Writer
}

// ServiceOpts holds parameters for creating a Service.
type ServiceOpts struct {
	Adapter  operator.Adapter
	Channel  string   // default operator destination (required)
	Archiver Archiver // optional
	Out      io.Writer
}

// NewService creates a Service with the given options.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("relay: adapter is required")
	}
	if opts.Channel == "" {
		return nil, fmt.Errorf("relay: default operator channel is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Service{
		store:    NewStore(),
		adapter:  opts.Adapter,
		channel:  opts.Channel,
		archiver: opts.Archiver,
		out:      out,
	}, nil
}

// Run connects the adapter and pumps inbound operator messages into
// HandleInbound until the context is cancelled. On shutdown it closes the
// adapter gracefully.
func (s *Service) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Switchboard connecting...\n")
	if err := s.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("relay: connect: %w", err)
	}

	if bui, ok := s.adapter.(operator.BotUserIDer); ok {
		s.botUserID = bui.BotUserID()
	}

	inbound, err := s.adapter.Listen(ctx)
	if err != nil {
		s.adapter.Close()
		return fmt.Errorf("relay: listen: %w", err)
	}

	fmt.Fprintf(s.out, "Switchboard online (operator channel %s)\n", s.channel)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.out, "Switchboard shutting down...\n")
			if err := s.adapter.Close(); err != nil {
				log.Printf("relay: close adapter: %v", err)
			}
			return nil

		case msg, ok := <-inbound:
			if !ok {
				fmt.Fprintf(s.out, "Switchboard inbound channel closed\n")
				return nil
			}
			s.HandleInbound(ctx, msg)
		}
	}
}

// archive hands a message to the configured archiver, if any. Archive
// failures are logged and never propagate.
func (s *Service) archive(msg Message) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(msg); err != nil {
		log.Printf("relay: archive message %d: %v", msg.ID, err)
	}
}
