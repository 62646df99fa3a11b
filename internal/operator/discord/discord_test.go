package discord

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/switchboard/internal/operator"
)

// mockSession implements the session interface for testing without the
// Discord Gateway.
type mockSession struct {
	opened       bool
	closed       bool
	handlers     []interface{}
	sent         []*discordgo.MessageSend
	sentChannels []string
	sendErr      error
	nextID       int
	interactions []*discordgo.InteractionResponse
}

func (m *mockSession) Open() error  { m.opened = true; return nil }
func (m *mockSession) Close() error { m.closed = true; return nil }

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		err := m.sendErr
		m.sendErr = nil
		return nil, err
	}
	m.nextID++
	m.sent = append(m.sent, data)
	m.sentChannels = append(m.sentChannels, channelID)
	return &discordgo.Message{ID: strconv.Itoa(1000 + m.nextID)}, nil
}

func (m *mockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.interactions = append(m.interactions, resp)
	return nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	mock := &mockSession{}
	a, err := New(AdapterOpts{Session: mock, ChannelID: "chan-1"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, mock
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(AdapterOpts{}); err == nil {
		t.Fatal("expected error without bot token or injected session")
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, err := New(AdapterOpts{Session: &mockSession{}})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if _, err := a.Send(context.Background(), operator.OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected error before Connect")
	}
}

func TestSend_ReturnsMessageID(t *testing.T) {
	a, mock := newTestAdapter(t)

	id, err := a.Send(context.Background(), operator.OutboundMessage{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id == "" {
		t.Error("send returned empty transport id")
	}
	if len(mock.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.sent))
	}
	if mock.sentChannels[0] != "chan-1" {
		t.Errorf("sent to %q, want the default channel", mock.sentChannels[0])
	}
	if mock.sent[0].Content != "hello" {
		t.Errorf("content = %q", mock.sent[0].Content)
	}
}

func TestSend_NoChannel(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{Session: mock})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := a.Send(context.Background(), operator.OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected error with no channel configured")
	}
}

func TestBuildMessageSend_ReplyReference(t *testing.T) {
	data := buildMessageSend(operator.OutboundMessage{
		Text:      "threaded answer",
		ReplyToID: "msg-77",
	}, "chan-1")

	if data.Reference == nil {
		t.Fatal("no message reference for a reply")
	}
	if data.Reference.MessageID != "msg-77" || data.Reference.ChannelID != "chan-1" {
		t.Errorf("reference = %+v", data.Reference)
	}
	if len(data.Components) != 0 {
		t.Error("reply carries a button without a prompt")
	}
}

func TestBuildMessageSend_ReplyPromptButton(t *testing.T) {
	data := buildMessageSend(operator.OutboundMessage{
		Text:        "visitor message",
		ReplyPrompt: "Reply",
	}, "chan-1")

	if len(data.Components) != 1 {
		t.Fatalf("components = %d, want one actions row", len(data.Components))
	}
	row, ok := data.Components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component type = %T, want ActionsRow", data.Components[0])
	}
	button, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("row component type = %T, want Button", row.Components[0])
	}
	if button.Label != "Reply" || button.CustomID != replyButtonID {
		t.Errorf("button = %+v", button)
	}
}

func TestHandleMessage_ReplyMapping(t *testing.T) {
	a, _ := newTestAdapter(t)

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "200",
		ChannelID: "chan-1",
		Content:   "operator answer",
		Author:    &discordgo.User{ID: "user-1", Username: "op"},
		MessageReference: &discordgo.MessageReference{
			MessageID: "msg-77",
			ChannelID: "chan-1",
		},
	}})

	select {
	case got := <-a.inbound:
		if got.ReplyToID != "msg-77" {
			t.Errorf("reply-to = %q, want msg-77", got.ReplyToID)
		}
		if got.TransportID != "200" {
			t.Errorf("transport id = %q, want the message's own id", got.TransportID)
		}
		if got.Platform != "discord" || got.UserName != "op" {
			t.Errorf("inbound = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no inbound message produced")
	}
}

func TestHandleMessage_FiltersBotAndSelf(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.SetBotUserID("bot-1")

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:      "201",
		Author:  &discordgo.User{ID: "bot-1"},
		Content: "own echo",
	}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:      "202",
		Author:  &discordgo.User{ID: "other-bot", Bot: true},
		Content: "another bot",
	}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:      "203",
		Content: "no author",
	}})

	select {
	case got := <-a.inbound:
		t.Fatalf("filtered message leaked through: %+v", got)
	default:
	}
}

func TestHandleInteraction_ReplyButton(t *testing.T) {
	a, mock := newTestAdapter(t)

	a.handleInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: replyButtonID},
	}})

	if len(mock.interactions) != 1 {
		t.Fatalf("responded to %d interactions, want 1", len(mock.interactions))
	}
	if mock.interactions[0].Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Error("reply-button hint is not ephemeral")
	}

	// Unrelated components are ignored.
	a.handleInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "something-else"},
	}})
	if len(mock.interactions) != 1 {
		t.Error("responded to an unrelated component")
	}
}

func TestRetryOnRateLimit_GivesUpOnOtherErrors(t *testing.T) {
	a, mock := newTestAdapter(t)
	mock.sendErr = errors.New("permanent failure")

	if _, err := a.Send(context.Background(), operator.OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected send error to surface")
	}
	if len(mock.sent) != 0 {
		t.Error("failed send was recorded")
	}
}

func TestRetryOnRateLimit_RetriesOn429(t *testing.T) {
	a, _ := newTestAdapter(t)
	a.baseBackoff = time.Millisecond
	a.maxBackoff = 5 * time.Millisecond

	calls := 0
	err := a.retryOnRateLimit(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &discordgo.RESTError{Response: &http.Response{StatusCode: 429}}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestClose_RemovesHandlerAndClosesInbound(t *testing.T) {
	a, mock := newTestAdapter(t)
	ch, err := a.Listen(context.Background())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !mock.closed {
		t.Error("underlying session not closed")
	}
	if _, ok := <-ch; ok {
		t.Error("inbound channel still open after Close")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
