package inbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/realtime"
)

type fakeAPI struct {
	mu       sync.Mutex
	replyErr error
	replies  []string
	read     []string
	convs    []model.Conversation
	// observed is the thread as seen while Reply was in flight
	observed Snapshot
	inbox    *Inbox
}

func (f *fakeAPI) Conversations(context.Context) ([]model.Conversation, error) {
	if f.convs != nil {
		return append([]model.Conversation(nil), f.convs...), nil
	}
	return []model.Conversation{
		{ID: "a", Name: "Alice", UnreadCount: 0},
		{ID: "b", Name: "Bob", UnreadCount: 2},
		{ID: "c", Name: "Carol"},
	}, nil
}

func (f *fakeAPI) Thread(_ context.Context, id string) ([]model.Message, error) {
	return []model.Message{
		{ID: id + "-1", ConversationID: id, Body: "first", Direction: model.DirectionInbound, Status: model.StatusRead},
		{ID: id + "-2", ConversationID: id, Body: "second", Direction: model.DirectionOutbound, Status: model.StatusSent},
	}, nil
}

func (f *fakeAPI) Reply(_ context.Context, id, body string) (model.Message, error) {
	f.mu.Lock()
	f.replies = append(f.replies, body)
	f.mu.Unlock()
	if f.inbox != nil {
		f.observed = f.inbox.Snapshot()
	}
	if f.replyErr != nil {
		return model.Message{}, f.replyErr
	}
	return model.Message{ID: "srv-1", ConversationID: id, Body: body, Direction: model.DirectionOutbound, Status: model.StatusSent}, nil
}

func (f *fakeAPI) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	f.read = append(f.read, id)
	f.mu.Unlock()
	return nil
}

func loaded(t *testing.T, api *fakeAPI) *Inbox {
	t.Helper()
	in := New(api)
	api.inbox = in
	if err := in.LoadConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	return in
}

func ids(convs []model.Conversation) string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return strings.Join(out, ",")
}

func TestMessageForClosedConversationBumpsUnreadAndMovesToTop(t *testing.T) {
	in := loaded(t, &fakeAPI{})
	if err := in.Open(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}

	in.HandleMessage(model.Message{ID: "c-9", ConversationID: "c", Body: "নতুন", Direction: model.DirectionInbound})

	s := in.Snapshot()
	if ids(s.Conversations) != "c,a,b" {
		t.Fatalf("order = %s", ids(s.Conversations))
	}
	if s.Conversations[0].UnreadCount != 1 || s.Conversations[0].LastMessage != "নতুন" {
		t.Fatalf("conversation = %+v", s.Conversations[0])
	}
	if len(s.Thread) != 2 {
		t.Fatalf("open thread changed: %+v", s.Thread)
	}
}

func TestMessageForOpenConversationAppends(t *testing.T) {
	in := loaded(t, &fakeAPI{})
	if err := in.Open(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	s := in.Snapshot()
	if s.Conversations[1].UnreadCount != 0 {
		t.Fatalf("opening did not clear unread: %+v", s.Conversations[1])
	}

	in.HandleMessage(model.Message{ID: "b-3", ConversationID: "b", Body: "third", Direction: model.DirectionInbound})

	s = in.Snapshot()
	if len(s.Thread) != 3 || s.Thread[2].ID != "b-3" {
		t.Fatalf("thread = %+v", s.Thread)
	}
	if s.Conversations[0].ID != "b" || s.Conversations[0].UnreadCount != 0 {
		t.Fatalf("conversation = %+v", s.Conversations[0])
	}
}

func TestUnknownConversationIsCreated(t *testing.T) {
	in := loaded(t, &fakeAPI{})
	in.HandleMessage(model.Message{ID: "z-1", ConversationID: "z", Body: "hi"})
	s := in.Snapshot()
	if ids(s.Conversations) != "z,a,b,c" || s.Conversations[0].UnreadCount != 1 {
		t.Fatalf("conversations = %+v", s.Conversations)
	}
}

func TestStatusPatchesMessageInPlace(t *testing.T) {
	in := loaded(t, &fakeAPI{})
	_ = in.Open(context.Background(), "a")
	if !in.HandleStatus(realtime.StatusUpdate{MessageID: "a-2", Status: model.StatusDelivered}) {
		t.Fatal("status not applied")
	}
	if in.HandleStatus(realtime.StatusUpdate{MessageID: "missing", Status: model.StatusRead}) {
		t.Fatal("unknown message patched")
	}
	s := in.Snapshot()
	if s.Thread[1].Status != model.StatusDelivered || s.Thread[1].Body != "second" {
		t.Fatalf("thread = %+v", s.Thread)
	}
}

func TestSendReplyIsOptimistic(t *testing.T) {
	api := &fakeAPI{}
	in := loaded(t, api)
	_ = in.Open(context.Background(), "c")
	in.SetDraft("c", "ধন্যবাদ")

	sent, err := in.SendReply(context.Background(), "ধন্যবাদ")
	if err != nil {
		t.Fatal(err)
	}
	// while the request was in flight the draft was empty and a pending
	// message was visible
	if api.observed.Draft != "" {
		t.Fatalf("draft during send = %q", api.observed.Draft)
	}
	last := api.observed.Thread[len(api.observed.Thread)-1]
	if last.Status != model.StatusPending || !strings.HasPrefix(last.ID, pendingPrefix) {
		t.Fatalf("pending message = %+v", last)
	}

	s := in.Snapshot()
	if sent.ID != "srv-1" || s.Thread[len(s.Thread)-1].ID != "srv-1" || len(s.Thread) != 3 {
		t.Fatalf("thread = %+v", s.Thread)
	}
	if ids(s.Conversations) != "c,a,b" {
		t.Fatalf("order = %s", ids(s.Conversations))
	}
}

func TestSendReplyFailureRestoresDraft(t *testing.T) {
	api := &fakeAPI{replyErr: errors.New("boom")}
	in := loaded(t, api)
	_ = in.Open(context.Background(), "a")

	if _, err := in.SendReply(context.Background(), "  দেখছি "); err == nil {
		t.Fatal("expected error")
	}
	s := in.Snapshot()
	if s.Draft != "  দেখছি " {
		t.Fatalf("draft = %q", s.Draft)
	}
	if len(s.Thread) != 2 {
		t.Fatalf("pending message left behind: %+v", s.Thread)
	}
}

func TestSendReplyValidation(t *testing.T) {
	api := &fakeAPI{}
	in := loaded(t, api)
	if _, err := in.SendReply(context.Background(), "hi"); !errors.Is(err, ErrNoConversation) {
		t.Fatalf("err = %v", err)
	}
	_ = in.Open(context.Background(), "a")
	if _, err := in.SendReply(context.Background(), "   "); !forms.IsInvalid(err) {
		t.Fatalf("err = %v", err)
	}
	if len(api.replies) != 0 {
		t.Fatalf("backend called: %v", api.replies)
	}
}

func TestWatchReleasesSubscription(t *testing.T) {
	bus := realtime.NewBus(nil)
	hub := NewHub(nil)
	api := &fakeAPI{}
	in, created := hub.For("sess-1", api)
	if !created {
		t.Fatal("inbox not created")
	}
	if again, created := hub.For("sess-1", api); created || again != in {
		t.Fatal("inbox not reused")
	}
	_ = in.LoadConversations(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Watch(ctx, bus, realtime.DefaultChannel) }()

	deadline := time.Now().Add(time.Second)
	for bus.Subscribers(realtime.DefaultChannel) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("hub never subscribed")
		}
		time.Sleep(time.Millisecond)
	}
	_ = bus.Publish(ctx, realtime.DefaultChannel, realtime.MessageEvent(model.Message{ID: "x", ConversationID: "b", Body: "ping"}))
	if s := in.Snapshot(); s.Conversations[0].ID != "b" || s.Conversations[0].UnreadCount != 3 {
		t.Fatalf("conversations = %+v", s.Conversations)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if n := bus.Subscribers(realtime.DefaultChannel); n != 0 {
		t.Fatalf("subscription leaked: %d", n)
	}
}

func TestRenderView(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := now.Add(-3 * time.Minute)
	v := Render(Snapshot{
		Conversations: []model.Conversation{{ID: "a", Phone: "8801", UnreadCount: 2, LastMessageAt: &at}, {ID: "b", Name: "Bob", UnreadCount: 1}},
		OpenID:        "b",
		Thread:        []model.Message{{ID: "p", Status: model.StatusPending, Direction: model.DirectionOutbound, CreatedAt: now}},
	}, now)
	if v.TotalUnread != 3 || v.Conversations[0].Name != "8801" || v.Conversations[0].When != "3 minutes ago" {
		t.Fatalf("view = %+v", v)
	}
	if !v.Conversations[1].Active || !v.Thread[0].Pending || !v.Thread[0].Outbound || v.Thread[0].When != "12:00" {
		t.Fatalf("view = %+v", v)
	}
}

func TestReloadKeepsRealtimeChanges(t *testing.T) {
	api := &fakeAPI{}
	in := loaded(t, api)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	in.HandleMessage(model.Message{ID: "c-9", ConversationID: "c", Body: "ping", Direction: model.DirectionInbound, CreatedAt: at})
	in.HandleMessage(model.Message{ID: "b-9", ConversationID: "b", Body: "pong", Direction: model.DirectionInbound, CreatedAt: at})

	if err := in.LoadConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := in.Snapshot()
	if ids(s.Conversations) != "b,c,a" {
		t.Fatalf("order = %s", ids(s.Conversations))
	}
	if s.Conversations[0].UnreadCount != 3 || s.Conversations[1].UnreadCount != 1 || s.Conversations[1].LastMessage != "ping" {
		t.Fatalf("conversations = %+v", s.Conversations)
	}

	// once the backend reports the message the local copy is let go
	api.convs = []model.Conversation{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob", UnreadCount: 3, LastMessage: "pong", LastMessageAt: &at},
		{ID: "c", Name: "Carol", UnreadCount: 1, LastMessage: "ping", LastMessageAt: &at},
	}
	_ = in.LoadConversations(context.Background())
	api.convs[1].UnreadCount = 0
	_ = in.LoadConversations(context.Background())
	s = in.Snapshot()
	if ids(s.Conversations) != "a,b,c" || s.Conversations[1].UnreadCount != 0 {
		t.Fatalf("conversations = %+v", s.Conversations)
	}
}

func TestOpenMarksRead(t *testing.T) {
	api := &fakeAPI{}
	in := loaded(t, api)
	if err := in.Open(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	if len(api.read) != 1 || api.read[0] != "b" {
		t.Fatalf("read = %v", api.read)
	}

	in.CloseConversation()
	in.HandleMessage(model.Message{ID: "b-3", ConversationID: "b", Body: "again", Direction: model.DirectionInbound})
	s := in.Snapshot()
	if s.OpenID != "" || len(s.Thread) != 0 || s.Conversations[0].UnreadCount != 1 {
		t.Fatalf("snapshot = %+v", s)
	}
}

func TestHubPrunesIdleInboxes(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hub := NewHub(nil)
	hub.now = func() time.Time { return now }
	api := &fakeAPI{}

	hub.For("old", api)
	now = now.Add(time.Hour)
	hub.For("fresh", api)
	now = now.Add(10 * time.Minute)

	if n := hub.Prune(30 * time.Minute); n != 1 {
		t.Fatalf("pruned %d", n)
	}
	if hub.Len() != 1 {
		t.Fatalf("len = %d", hub.Len())
	}
	if _, created := hub.For("fresh", api); created {
		t.Fatal("fresh inbox was pruned")
	}
	hub.Drop("fresh")
	if hub.Len() != 0 {
		t.Fatalf("len after drop = %d", hub.Len())
	}
}
