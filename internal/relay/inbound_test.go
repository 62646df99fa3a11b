package relay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/switchboard/internal/operator"
)

// relayAndGetTransportID forwards a client message and returns the transport
// ID the operator channel assigned to it.
func relayAndGetTransportID(t *testing.T, svc *Service, adapter *operator.MockAdapter, text, url string) string {
	t.Helper()
	if _, err := svc.RelayClientMessage(context.Background(), text, "client", "OL1", url); err != nil {
		t.Fatalf("relay %q: %v", text, err)
	}
	return adapter.LastSentID()
}

func TestHandleInbound_ReplyCorrelation(t *testing.T) {
	svc, adapter := newTestService(t)
	tid := relayAndGetTransportID(t, svc, adapter, "Hello", "https://site/page")

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		Platform:    "mock",
		ChannelID:   "ops-channel",
		TransportID: "op-1",
		ReplyToID:   tid,
		UserID:      "op",
		UserName:    "operator",
		Text:        "Hi there",
	})

	pending := svc.ListPending()
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want 1", len(pending))
	}
	if pending[0].Text != "Hi there" {
		t.Errorf("pending text = %q, want the operator reply", pending[0].Text)
	}
	if pending[0].SessionKey != "OL1_https://site/page" {
		t.Errorf("pending session = %q, want the originating session", pending[0].SessionKey)
	}

	// The operator gets a confirmation threaded under their reply.
	conf, _ := adapter.LastSent()
	if conf.ReplyToID != "op-1" {
		t.Errorf("confirmation reply-to = %q, want op-1", conf.ReplyToID)
	}
	if !strings.Contains(conf.Text, "Reply saved") {
		t.Errorf("confirmation text = %q", conf.Text)
	}
}

func TestHandleInbound_UnattributableReplyDropped(t *testing.T) {
	svc, adapter := newTestService(t)
	before := adapter.SentCount()

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "ops-channel",
		ReplyToID: "never-seen",
		UserName:  "operator",
		Text:      "orphan reply",
	})

	if len(svc.ListPending()) != 0 {
		t.Error("unattributable reply produced a pending entry")
	}
	if adapter.SentCount() != before {
		t.Error("unattributable reply produced operator feedback, want silent drop")
	}
}

func TestHandleInbound_NonReplyIgnored(t *testing.T) {
	svc, adapter := newTestService(t)
	relayAndGetTransportID(t, svc, adapter, "Hello", "https://a")
	before := adapter.SentCount()

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "ops-channel",
		UserName:  "operator",
		Text:      "just chatting in the channel",
	})

	if len(svc.ListPending()) != 0 {
		t.Error("non-reply message produced a pending entry")
	}
	if adapter.SentCount() != before {
		t.Error("non-reply message produced a send")
	}
}

func TestHandleInbound_SelfMessageIgnored(t *testing.T) {
	svc, adapter := newTestService(t)
	tid := relayAndGetTransportID(t, svc, adapter, "Hello", "https://a")
	svc.botUserID = "bot-7"

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "ops-channel",
		ReplyToID: tid,
		UserID:    "bot-7",
		Text:      "echo of our own message",
	})

	if len(svc.ListPending()) != 0 {
		t.Error("self-message produced a pending entry")
	}
}

func TestHandleInbound_StartCommand(t *testing.T) {
	svc, adapter := newTestService(t)

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "chan-42",
		UserName:  "operator",
		Text:      "/start",
	})

	resp, ok := adapter.LastSent()
	if !ok {
		t.Fatal("no response to /start")
	}
	if !strings.Contains(resp.Text, "chan-42") {
		t.Errorf("start response %q does not report the channel id", resp.Text)
	}
	if resp.ChannelID != "chan-42" {
		t.Errorf("start response sent to %q, want chan-42", resp.ChannelID)
	}
}

func TestHandleInbound_IDCommand(t *testing.T) {
	svc, adapter := newTestService(t)

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "chan-9",
		Text:      "!sb id",
	})

	resp, ok := adapter.LastSent()
	if !ok {
		t.Fatal("no response to !sb id")
	}
	if !strings.Contains(resp.Text, "chan-9") {
		t.Errorf("id response %q does not report the channel id", resp.Text)
	}
}

func TestHandleInbound_UnknownCommandGetsHelp(t *testing.T) {
	svc, adapter := newTestService(t)

	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "chan-9",
		Text:      "!sb dance",
	})

	resp, _ := adapter.LastSent()
	if !strings.Contains(resp.Text, "Unknown command") {
		t.Errorf("response = %q, want unknown-command help", resp.Text)
	}
}

func TestHandleInbound_ForeignSlashCommandIgnored(t *testing.T) {
	svc, adapter := newTestService(t)
	tid := relayAndGetTransportID(t, svc, adapter, "Hello", "https://a")
	before := adapter.SentCount()

	// A slash command must never reach reply correlation, even when the
	// platform marks it as a reply.
	svc.HandleInbound(context.Background(), operator.InboundMessage{
		ChannelID: "ops-channel",
		ReplyToID: tid,
		Text:      "/mute",
	})

	if len(svc.ListPending()) != 0 {
		t.Error("slash command produced a pending entry")
	}
	if adapter.SentCount() != before {
		t.Error("foreign slash command produced a response")
	}
}

func TestRun_EndToEnd(t *testing.T) {
	svc, adapter := newTestService(t)
	adapter.SetBotUserID("bot-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	tid := relayAndGetTransportID(t, svc, adapter, "Hello", "https://site")
	adapter.SimulateInbound(operator.InboundMessage{
		ChannelID:   "ops-channel",
		TransportID: "op-1",
		ReplyToID:   tid,
		UserID:      "op",
		Text:        "Hi from the operator",
	})

	// The inbound pump runs on its own goroutine; wait for the reply.
	deadline := time.After(2 * time.Second)
	for len(svc.ListPending()) == 0 {
		select {
		case <-deadline:
			t.Fatal("reply never queued")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
