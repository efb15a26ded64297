package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func callback(t *testing.T, event map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type":     TypeEventCallback,
		"event_id": "Ev123",
		"event":    event,
	})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestClassify_Handshake(t *testing.T) {
	c := NewClassifier("C1")
	raw := []byte(`{"type":"url_verification","token":"x","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`)

	out, err := c.Classify(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != DecisionChallenge {
		t.Fatalf("expected challenge decision, got %s", out.Decision)
	}
	if out.Challenge != "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P" {
		t.Errorf("challenge not echoed verbatim: %q", out.Challenge)
	}
	if out.Event.Kind != KindHandshake {
		t.Errorf("expected handshake kind, got %s", out.Event.Kind)
	}
}

func TestClassify_RootMessage(t *testing.T) {
	c := NewClassifier("C1")
	out, err := c.Classify(callback(t, map[string]any{
		"type": "message", "channel": "C1", "user": "U1", "text": "Hello", "ts": "100",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != DecisionProcess {
		t.Fatalf("expected process, got %s (%s)", out.Decision, out.Reason)
	}
	evt := out.Event
	if evt.EventID != "Ev123" {
		t.Errorf("expected event id Ev123, got %s", evt.EventID)
	}
	if evt.ThreadID() != "100" {
		t.Errorf("expected thread id 100, got %s", evt.ThreadID())
	}
	if !evt.IsRoot() {
		t.Error("expected root event")
	}
	if evt.Author != AuthorHuman {
		t.Errorf("expected human author, got %s", evt.Author)
	}
}

func TestClassify_Reply(t *testing.T) {
	c := NewClassifier("")
	out, err := c.Classify(callback(t, map[string]any{
		"type": "message", "channel": "C9", "user": "U1", "text": "World", "ts": "101", "thread_ts": "100",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != DecisionProcess {
		t.Fatalf("expected process with no target channel, got %s (%s)", out.Decision, out.Reason)
	}
	if out.Event.ThreadID() != "100" {
		t.Errorf("expected thread id 100, got %s", out.Event.ThreadID())
	}
	if out.Event.IsRoot() {
		t.Error("expected reply, not root")
	}
}

func TestClassify_ThreadParentWithThreadTS(t *testing.T) {
	evt := InboundEvent{OwnTS: "100", ThreadTS: "100"}
	if !evt.IsRoot() {
		t.Error("event whose ts equals thread_ts should be root")
	}
}

func TestClassify_Filters(t *testing.T) {
	tests := []struct {
		name   string
		event  map[string]any
		reason string
	}{
		{
			name:   "other channel",
			event:  map[string]any{"type": "message", "channel": "C2", "text": "hi", "ts": "1"},
			reason: ReasonOtherChannel,
		},
		{
			name:   "bot id",
			event:  map[string]any{"type": "message", "channel": "C1", "bot_id": "B1", "text": "hi", "ts": "1"},
			reason: ReasonAutomated,
		},
		{
			name:   "bot subtype",
			event:  map[string]any{"type": "message", "subtype": "bot_message", "channel": "C1", "text": "hi", "ts": "1"},
			reason: ReasonAutomated,
		},
		{
			name:   "not a message",
			event:  map[string]any{"type": "reaction_added", "channel": "C1", "text": "hi", "ts": "1"},
			reason: ReasonNotMessage,
		},
		{
			name:   "empty text",
			event:  map[string]any{"type": "message", "channel": "C1", "text": "", "ts": "1"},
			reason: ReasonEmptyText,
		},
		{
			// Channel filter runs before the author filter.
			name:   "bot in other channel",
			event:  map[string]any{"type": "message", "channel": "C2", "bot_id": "B1", "text": "hi", "ts": "1"},
			reason: ReasonOtherChannel,
		},
	}

	c := NewClassifier("C1")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Classify(callback(t, tt.event))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Decision != DecisionIgnore {
				t.Fatalf("expected ignore, got %s", out.Decision)
			}
			if out.Reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, out.Reason)
			}
		})
	}
}

func TestClassify_UnknownEnvelope(t *testing.T) {
	out, err := NewClassifier("").Classify([]byte(`{"type":"app_rate_limited"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Decision != DecisionIgnore || out.Reason != ReasonUnknownEnvelope {
		t.Errorf("expected ignore/unknown_envelope, got %s/%s", out.Decision, out.Reason)
	}
}

func TestClassify_Malformed(t *testing.T) {
	c := NewClassifier("")
	for _, raw := range []string{`not json`, `{"type":"event_callback","event":"oops"}`} {
		if _, err := c.Classify([]byte(raw)); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%q: expected ErrMalformedPayload, got %v", raw, err)
		}
	}
}

func TestClassify_MissingEventIDGetsOne(t *testing.T) {
	raw := []byte(`{"type":"event_callback","event":{"type":"message","text":"hi","ts":"1"}}`)
	out, err := NewClassifier("").Classify(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Event.EventID == "" {
		t.Error("expected generated event id")
	}
}
