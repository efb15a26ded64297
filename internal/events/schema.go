package events

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ErrMalformedPayload is returned when a webhook body is not a decodable Slack envelope.
var ErrMalformedPayload = errors.New("events: malformed payload")

// Envelope types sent by the Slack Events API.
const (
	TypeURLVerification = "url_verification"
	TypeEventCallback   = "event_callback"

	TypeMessage = "message"

	SubtypeBotMessage = "bot_message"
)

// Kind classifies an inbound event.
type Kind string

const (
	KindHandshake Kind = "handshake"
	KindMessage   Kind = "message"
	KindOther     Kind = "other"
)

// AuthorKind tells human-written messages apart from machine-written ones.
type AuthorKind string

const (
	AuthorHuman     AuthorKind = "human"
	AuthorAutomated AuthorKind = "automated"
)

// envelope is the outer Events API payload.
type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

// slackEvent is the subset of the inner event we read.
type slackEvent struct {
	Type     string `json:"type"`
	Subtype  string `json:"subtype"`
	Channel  string `json:"channel"`
	User     string `json:"user"`
	BotID    string `json:"bot_id"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
}

// InboundEvent is one decoded message event. It is never persisted.
type InboundEvent struct {
	EventID       string
	Kind          Kind
	OriginChannel string
	Author        AuthorKind
	Text          string
	OwnTS         string
	ThreadTS      string
}

// ThreadID is the timestamp of the thread root.
func (e InboundEvent) ThreadID() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.OwnTS
}

// IsRoot reports whether the event starts its thread.
func (e InboundEvent) IsRoot() bool {
	return e.ThreadTS == "" || e.OwnTS == e.ThreadTS
}

func (s slackEvent) toInbound(eventID string) InboundEvent {
	kind := KindOther
	if s.Type == TypeMessage {
		kind = KindMessage
	}
	author := AuthorHuman
	if s.BotID != "" || s.Subtype == SubtypeBotMessage {
		author = AuthorAutomated
	}
	if eventID == "" {
		eventID = uuid.New().String()
	}
	return InboundEvent{
		EventID:       eventID,
		Kind:          kind,
		OriginChannel: s.Channel,
		Author:        author,
		Text:          s.Text,
		OwnTS:         s.TS,
		ThreadTS:      s.ThreadTS,
	}
}
