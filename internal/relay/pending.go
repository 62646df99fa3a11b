package relay

import (
	"fmt"
	"time"
)

// PendingReply is an operator reply awaiting delivery to the widget, as
// exposed to the polling endpoint.
type PendingReply struct {
	ID         uint64    `json:"id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	SessionKey string    `json:"-"`
}

// ListPending returns all undelivered operator replies in insertion order.
// The result spans every session: the base deployment assumes a single
// shared widget instance, so pollers see the full pending set.
func (s *Service) ListPending() []PendingReply {
	return toPendingReplies(s.store.Pending(""))
}

// ListPendingSession returns the undelivered operator replies for one
// session, in insertion order. Opt-in scoping for multi-widget deployments.
func (s *Service) ListPendingSession(sessionKey string) []PendingReply {
	return toPendingReplies(s.store.Pending(sessionKey))
}

// Acknowledge removes every listed reply from the pending queue. Unknown
// IDs are ignored; repeated acknowledgement is a no-op. Confirmed replies
// are handed to the archiver.
func (s *Service) Acknowledge(ids []uint64) {
	delivered := s.store.Acknowledge(ids)
	for _, msg := range delivered {
		fmt.Fprintf(s.out, "relay: reply %d delivered to session %s\n", msg.ID, msg.SessionKey)
		s.archive(msg)
	}
}

func toPendingReplies(msgs []Message) []PendingReply {
	out := make([]PendingReply, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, PendingReply{
			ID:         msg.ID,
			Text:       msg.Text,
			Timestamp:  msg.Timestamp,
			SessionKey: msg.SessionKey,
		})
	}
	return out
}
