package operator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockAdapter implements Adapter for testing. It records sent messages,
// assigns sequential transport IDs, and allows simulating inbound messages
// via SimulateInbound.
type MockAdapter struct {
	mu          sync.Mutex
	connected   bool
	closed      bool
	inbound     chan InboundMessage
	sent        []OutboundMessage
	sentIDs     []string
	sendCounter int // incremented for each Send, forms the transport ID
	failSend    error
	botUserID   string
}

// NewMockAdapter creates a MockAdapter with a buffered inbound channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		inbound: make(chan InboundMessage, 100),
	}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound message channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan InboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound message and returns a sequential transport ID
// ("m1", "m2", ...). If FailNextSend was called, the queued error is
// returned instead and nothing is recorded.
func (m *MockAdapter) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return "", fmt.Errorf("mock adapter: not connected")
	}
	if m.failSend != nil {
		err := m.failSend
		m.failSend = nil
		return "", err
	}
	m.sendCounter++
	id := fmt.Sprintf("m%d", m.sendCounter)
	m.sent = append(m.sent, msg)
	m.sentIDs = append(m.sentIDs, id)
	return id, nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// BotUserID returns the configured bot user ID (implements BotUserIDer).
func (m *MockAdapter) BotUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.botUserID
}

// SetBotUserID sets the bot user ID for testing.
func (m *MockAdapter) SetBotUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botUserID = id
}

// --- Test helpers ---

// FailNextSend makes the next Send call return err.
func (m *MockAdapter) FailNextSend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSend = err
}

// SimulateInbound sends a message into the inbound channel as if it came
// from the chat platform. Safe to call from any goroutine.
func (m *MockAdapter) SimulateInbound(msg InboundMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	m.inbound <- msg
}

// LastSent returns the most recently sent outbound message.
// Returns zero value and false if no messages have been sent.
func (m *MockAdapter) LastSent() (OutboundMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return OutboundMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// LastSentID returns the transport ID assigned to the most recent Send.
func (m *MockAdapter) LastSentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sentIDs) == 0 {
		return ""
	}
	return m.sentIDs[len(m.sentIDs)-1]
}

// SentCount returns the number of outbound messages sent.
func (m *MockAdapter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// AllSent returns a copy of all sent outbound messages.
func (m *MockAdapter) AllSent() []OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
