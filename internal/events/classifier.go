package events

import (
	"encoding/json"
	"fmt"
)

// Decision is what the caller should do with a verified payload.
type Decision int

const (
	// DecisionIgnore acknowledges without processing.
	DecisionIgnore Decision = iota
	// DecisionChallenge echoes Classification.Challenge back to Slack.
	DecisionChallenge
	// DecisionProcess sends Classification.Event through generation and aggregation.
	DecisionProcess
)

func (d Decision) String() string {
	switch d {
	case DecisionChallenge:
		return "challenge"
	case DecisionProcess:
		return "process"
	default:
		return "ignore"
	}
}

// Ignore reasons.
const (
	ReasonUnknownEnvelope = "unknown_envelope"
	ReasonOtherChannel    = "other_channel"
	ReasonAutomated       = "automated_author"
	ReasonNotMessage      = "not_message"
	ReasonEmptyText       = "empty_text"
)

type Classification struct {
	Decision  Decision
	Challenge string
	Event     InboundEvent
	Reason    string
}

// Classifier turns signature-verified webhook bodies into decisions.
type Classifier struct {
	targetChannel string
}

// NewClassifier returns a classifier. An empty targetChannel accepts every channel.
func NewClassifier(targetChannel string) *Classifier {
	return &Classifier{targetChannel: targetChannel}
}

// Classify decodes raw and applies the channel, author and content filters in that order.
func (c *Classifier) Classify(raw []byte) (Classification, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Type {
	case TypeURLVerification:
		return Classification{
			Decision:  DecisionChallenge,
			Challenge: env.Challenge,
			Event:     InboundEvent{Kind: KindHandshake},
		}, nil
	case TypeEventCallback:
	default:
		return Classification{Decision: DecisionIgnore, Reason: ReasonUnknownEnvelope}, nil
	}

	var se slackEvent
	if len(env.Event) > 0 {
		if err := json.Unmarshal(env.Event, &se); err != nil {
			return Classification{}, fmt.Errorf("%w: event: %v", ErrMalformedPayload, err)
		}
	}
	evt := se.toInbound(env.EventID)

	out := Classification{Decision: DecisionIgnore, Event: evt}
	switch {
	case c.targetChannel != "" && evt.OriginChannel != c.targetChannel:
		out.Reason = ReasonOtherChannel
	case evt.Author == AuthorAutomated:
		out.Reason = ReasonAutomated
	case evt.Kind != KindMessage:
		out.Reason = ReasonNotMessage
	case evt.Text == "":
		out.Reason = ReasonEmptyText
	default:
		out.Decision = DecisionProcess
	}
	return out, nil
}
