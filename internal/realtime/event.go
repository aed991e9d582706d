// Package realtime carries inbox events over a named broadcast channel.
//
// Two event kinds travel on the channel, each as a JSON envelope
// {"event": kind, "data": {...}}: a received message and a delivery status
// update.  Payload ids arrive as numbers or strings depending on the
// producer, so decoding is deliberately loose.
package realtime

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/votemamu/web/internal/model"
)

// DefaultChannel is the inbox broadcast channel.
const DefaultChannel = "whatsapp.messages"

// Event kinds.
const (
	KindMessage = "message.received"
	KindStatus  = "message.status"
)

// StatusUpdate reports a new delivery state for one message.
type StatusUpdate struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Status         string `json:"status"`
}

// Event is one decoded channel event.  Exactly one of Message and Status is
// set, matching Kind.
type Event struct {
	Kind    string
	Message *model.Message
	Status  *StatusUpdate
}

// MessageEvent wraps m as a received-message event.
func MessageEvent(m model.Message) Event { return Event{Kind: KindMessage, Message: &m} }

// StatusEvent wraps u as a status event.
func StatusEvent(u StatusUpdate) Event { return Event{Kind: KindStatus, Status: &u} }

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode renders ev as a channel envelope.
func Encode(ev Event) ([]byte, error) {
	var data any
	switch ev.Kind {
	case KindMessage:
		if ev.Message == nil {
			return nil, fmt.Errorf("realtime: %s event without message", ev.Kind)
		}
		data = ev.Message
	case KindStatus:
		if ev.Status == nil {
			return nil, fmt.Errorf("realtime: %s event without status", ev.Kind)
		}
		data = ev.Status
	default:
		return nil, fmt.Errorf("realtime: unknown event %q", ev.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: ev.Kind, Data: raw})
}

// Decode parses a channel envelope.
func Decode(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("realtime: decode envelope: %w", err)
	}
	fields := map[string]any{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &fields); err != nil {
			return Event{}, fmt.Errorf("realtime: decode %s data: %w", env.Event, err)
		}
	}
	switch env.Event {
	case KindMessage:
		m := decodeMessage(fields)
		if m.ID == "" || m.ConversationID == "" {
			return Event{}, fmt.Errorf("realtime: %s without ids", env.Event)
		}
		return Event{Kind: KindMessage, Message: &m}, nil
	case KindStatus:
		u := StatusUpdate{
			MessageID:      firstString(fields, "message_id", "id"),
			ConversationID: firstString(fields, "conversation_id"),
			Status:         firstString(fields, "status"),
		}
		if u.MessageID == "" || u.Status == "" {
			return Event{}, fmt.Errorf("realtime: %s without message id or status", env.Event)
		}
		return Event{Kind: KindStatus, Status: &u}, nil
	}
	return Event{}, fmt.Errorf("realtime: unknown event %q", env.Event)
}

func decodeMessage(f map[string]any) model.Message {
	m := model.Message{
		ID:             firstString(f, "id", "message_id"),
		ConversationID: firstString(f, "conversation_id"),
		Body:           firstString(f, "body", "message"),
		Direction:      firstString(f, "direction"),
		Status:         firstString(f, "status"),
	}
	if m.Direction == "" {
		m.Direction = model.DirectionInbound
	}
	if v, ok := f["created_at"]; ok {
		if t, err := cast.ToTimeE(v); err == nil {
			m.CreatedAt = t
		}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return m
}

func firstString(f map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}
