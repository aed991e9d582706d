package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

func TestDecodeLooseIDs(t *testing.T) {
	body := []byte(`{"event":"message.received","data":{"id":42,"conversation_id":7,"message":"হ্যালো","created_at":"2024-05-01T10:00:00Z"}}`)
	ev, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	m := ev.Message
	if ev.Kind != KindMessage || m.ID != "42" || m.ConversationID != "7" || m.Body != "হ্যালো" {
		t.Fatalf("message = %+v", m)
	}
	if m.Direction != model.DirectionInbound {
		t.Fatalf("direction = %q", m.Direction)
	}
	if !m.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at = %v", m.CreatedAt)
	}

	ev, err = Decode([]byte(`{"event":"message.status","data":{"message_id":"wamid.1","status":"read"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != KindStatus || ev.Status.MessageID != "wamid.1" || ev.Status.Status != model.StatusRead {
		t.Fatalf("status = %+v", ev.Status)
	}
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"event":"typing","data":{}}`,
		`{"event":"message.received","data":{"body":"x"}}`,
		`{"event":"message.status","data":{"message_id":"1"}}`,
	} {
		if _, err := Decode([]byte(body)); err == nil {
			t.Errorf("Decode(%s) succeeded", body)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := model.Message{ID: "m1", ConversationID: "c1", Body: "hi", Direction: model.DirectionOutbound,
		Status: model.StatusSent, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	raw, err := Encode(MessageEvent(in))
	if err != nil {
		t.Fatal(err)
	}
	ev, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	got := *ev.Message
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("created_at = %v", got.CreatedAt)
	}
	got.CreatedAt = in.CreatedAt
	if got != in {
		t.Fatalf("round trip = %+v, want %+v", got, in)
	}
	if _, err := Encode(Event{Kind: KindStatus}); err == nil {
		t.Fatal("status event without payload encoded")
	}
}

func TestBusDeliversUntilClosed(t *testing.T) {
	rec := &logging.Recorder{}
	bus := NewBus(rec)
	ctx := context.Background()

	var msgs []model.Message
	var statuses []StatusUpdate
	sub, err := bus.Subscribe(ctx, DefaultChannel, Handlers{
		OnMessage: func(m model.Message) { msgs = append(msgs, m) },
		OnStatus:  func(u StatusUpdate) { statuses = append(statuses, u) },
	})
	if err != nil {
		t.Fatal(err)
	}
	other, _ := bus.Subscribe(ctx, "other", Handlers{OnMessage: func(model.Message) { t.Error("wrong channel") }})
	defer other.Close()

	_ = bus.Publish(ctx, DefaultChannel, MessageEvent(model.Message{ID: "1", ConversationID: "c"}))
	_ = bus.Publish(ctx, DefaultChannel, StatusEvent(StatusUpdate{MessageID: "1", Status: model.StatusDelivered}))
	if len(msgs) != 1 || len(statuses) != 1 {
		t.Fatalf("delivered %d messages, %d statuses", len(msgs), len(statuses))
	}

	sub.Close()
	sub.Close()
	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed")
	}
	if n := bus.Subscribers(DefaultChannel); n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
	_ = bus.Publish(ctx, DefaultChannel, MessageEvent(model.Message{ID: "2", ConversationID: "c"}))
	if len(msgs) != 1 {
		t.Fatal("delivered after Close")
	}
}

func TestBusSubscriptionEndsWithContext(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, DefaultChannel, Handlers{})
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription outlived its context")
	}
	if _, err := bus.Subscribe(ctx, DefaultChannel, Handlers{}); err == nil {
		t.Fatal("subscribe with a cancelled context succeeded")
	}
}
