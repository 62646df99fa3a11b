package relay

import (
	"fmt"
	"sync"
	"time"
)

// Direction indicates which way a message passed through the relay.
type Direction string

const (
	// ClientToOperator is a website visitor message forwarded to the operator channel.
	ClientToOperator Direction = "client_to_operator"
	// OperatorToClient is an operator reply queued for delivery to the widget.
	OperatorToClient Direction = "operator_to_client"
)

// Message is one message that passed through the relay, either direction.
type Message struct {
	ID          uint64
	Text        string
	Direction   Direction
	Timestamp   time.Time
	SessionKey  string
	Destination string
	TransportID string // platform ID of the delivered message (client→operator only)
	Delivered   bool   // operator→client: fetched and confirmed by the widget
}

// session is one visitor conversation with its sticky operator destination.
type session struct {
	destination string
	lastSeen    time.Time
}

// Store holds all relay state: the session table, the message table, the
// insertion-ordered pending index, and the transport-ID index. All access
// goes through the mutex; callers never hold references into the maps.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*session
	messages    map[uint64]*Message
	pending     []uint64 // undelivered operator→client message IDs, insertion order
	byTransport map[string]uint64
	counter     uint64

	now func() time.Time // overridable for tests
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions:    make(map[string]*session),
		messages:    make(map[uint64]*Message),
		byTransport: make(map[string]uint64),
		now:         time.Now,
	}
}

// ResolveDestination returns the operator destination bound to sessionKey.
// The first call for a key binds defaultDest and the binding never changes
// afterwards (sticky routing). Activity refreshes the session's lastSeen.
func (s *Store) ResolveDestination(sessionKey, defaultDest string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey]
	if !ok {
		sess = &session{destination: defaultDest}
		s.sessions[sessionKey] = sess
	}
	sess.lastSeen = s.now()
	return sess.destination
}

// SessionCount returns the number of known sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// AddClientMessage records a client→operator message and returns a copy of it.
// The transport ID is linked separately once the platform send succeeds.
func (s *Store) AddClientMessage(text, sessionKey, destination string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	msg := &Message{
		ID:          s.counter,
		Text:        text,
		Direction:   ClientToOperator,
		Timestamp:   s.now(),
		SessionKey:  sessionKey,
		Destination: destination,
	}
	s.messages[msg.ID] = msg
	return *msg
}

// LinkTransportID attaches the platform-assigned message ID to a stored
// record. Transport IDs must be unique among all linked records; a duplicate
// is refused so a later reply cannot be misrouted.
func (s *Store) LinkTransportID(id uint64, transportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if transportID == "" {
		return fmt.Errorf("relay: empty transport id for message %d", id)
	}
	if prev, ok := s.byTransport[transportID]; ok {
		return fmt.Errorf("relay: transport id %s already linked to message %d", transportID, prev)
	}
	msg, ok := s.messages[id]
	if !ok {
		return fmt.Errorf("relay: message %d not found", id)
	}
	msg.TransportID = transportID
	s.byTransport[transportID] = id
	return nil
}

// LookupTransportID resolves a transport message ID to the stored record.
func (s *Store) LookupTransportID(transportID string) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byTransport[transportID]
	if !ok {
		return Message{}, false
	}
	msg, ok := s.messages[id]
	if !ok {
		return Message{}, false
	}
	return *msg, true
}

// AddOperatorReply records an operator→client message, appends it to the
// pending queue, and refreshes the session's lastSeen.
func (s *Store) AddOperatorReply(text, sessionKey, destination string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	msg := &Message{
		ID:          s.counter,
		Text:        text,
		Direction:   OperatorToClient,
		Timestamp:   s.now(),
		SessionKey:  sessionKey,
		Destination: destination,
	}
	s.messages[msg.ID] = msg
	s.pending = append(s.pending, msg.ID)
	if sess, ok := s.sessions[sessionKey]; ok {
		sess.lastSeen = s.now()
	}
	return *msg
}

// Pending returns all undelivered operator→client messages in insertion
// order. When sessionKey is non-empty only that session's messages are
// returned.
func (s *Store) Pending(sessionKey string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Message
	for _, id := range s.pending {
		msg, ok := s.messages[id]
		if !ok {
			continue
		}
		if sessionKey != "" && msg.SessionKey != sessionKey {
			continue
		}
		out = append(out, *msg)
	}
	return out
}

// Acknowledge marks each listed message as delivered and removes it from the
// pending queue. Unknown IDs are ignored; repeating an ID is a no-op. The
// newly delivered messages are returned so the caller can archive them.
func (s *Store) Acknowledge(ids []uint64) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var delivered []Message
	for _, id := range ids {
		msg, ok := s.messages[id]
		if !ok || msg.Direction != OperatorToClient || msg.Delivered {
			continue
		}
		msg.Delivered = true
		delivered = append(delivered, *msg)
	}
	if len(delivered) == 0 {
		return nil
	}
	remaining := s.pending[:0]
	for _, id := range s.pending {
		if msg, ok := s.messages[id]; ok && !msg.Delivered {
			remaining = append(remaining, id)
		}
	}
	s.pending = remaining
	return delivered
}

// Sweep evicts state older than maxAge: sessions idle past the limit (unless
// they still have undelivered replies) and message records past the limit
// that are either client→operator or already delivered. Undelivered pending
// replies are never evicted. Returns the evicted messages and the number of
// evicted sessions.
func (s *Store) Sweep(maxAge time.Duration) ([]Message, int) {
	if maxAge <= 0 {
		return nil, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxAge)

	hasPending := make(map[string]bool)
	for _, id := range s.pending {
		if msg, ok := s.messages[id]; ok {
			hasPending[msg.SessionKey] = true
		}
	}

	var evicted []Message
	for id, msg := range s.messages {
		if msg.Timestamp.After(cutoff) {
			continue
		}
		if msg.Direction == OperatorToClient && !msg.Delivered {
			continue
		}
		evicted = append(evicted, *msg)
		if msg.TransportID != "" {
			delete(s.byTransport, msg.TransportID)
		}
		delete(s.messages, id)
	}

	sessionsEvicted := 0
	for key, sess := range s.sessions {
		if sess.lastSeen.After(cutoff) || hasPending[key] {
			continue
		}
		delete(s.sessions, key)
		sessionsEvicted++
	}
	return evicted, sessionsEvicted
}
