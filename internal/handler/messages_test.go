package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/inbox"
	"github.com/votemamu/web/internal/middleware"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/realtime"
	"github.com/votemamu/web/internal/session"
)

type inboxBackend struct {
	mu    sync.Mutex
	lists int
	reads []string
}

func (b *inboxBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/conversations"):
		b.lists++
		fmt.Fprint(w, `{"success":true,"data":[{"id":"a","name":"Alice","unread_count":0},{"id":"b","name":"Bob","unread_count":0}]}`)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/messages"):
		fmt.Fprint(w, `{"success":true,"data":[{"id":"a-1","conversation_id":"a","body":"hello","direction":"inbound","status":"read"}]}`)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/read"):
		parts := strings.Split(r.URL.Path, "/")
		b.reads = append(b.reads, parts[len(parts)-2])
		fmt.Fprint(w, `{"success":true,"data":null}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"message":"not found"}`)
	}
}

func (b *inboxBackend) listCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func inboxServer(t *testing.T) (*echo.Echo, *inbox.Hub, *inboxBackend) {
	t.Helper()
	backend := &inboxBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	hub := inbox.NewHub(nil)
	h := NewInboxHandler(hub, api.New(srv.URL), nil)
	signedIn := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextSession, session.Session{ID: "s1", Token: "tok", Realm: session.RealmAdmin})
			return next(c)
		}
	}
	e := newEcho(t)
	g := e.Group("/admin", signedIn)
	g.GET("/messages", h.Conversations)
	g.GET("/messages/state", h.State)
	g.POST("/messages/close", h.Close)
	g.GET("/messages/:id", h.Open)
	return e, hub, backend
}

func conversation(t *testing.T, body map[string]any, id string) map[string]any {
	t.Helper()
	convs, _ := body["conversations"].([]any)
	for _, c := range convs {
		if m := c.(map[string]any); m["id"] == id {
			return m
		}
	}
	t.Fatalf("conversation %s missing from %v", id, body)
	return nil
}

func TestInboxStateShowsRealtimeMessages(t *testing.T) {
	e, hub, backend := inboxServer(t)

	if rec := serve(e, http.MethodGet, "/admin/messages", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	bus := realtime.NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Watch(ctx, bus, realtime.DefaultChannel) }()
	deadline := time.Now().Add(time.Second)
	for bus.Subscribers(realtime.DefaultChannel) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("hub never subscribed")
		}
		time.Sleep(time.Millisecond)
	}
	_ = bus.Publish(ctx, realtime.DefaultChannel, realtime.MessageEvent(model.Message{
		ID: "b-9", ConversationID: "b", Body: "ping", Direction: model.DirectionInbound,
	}))

	rec := serve(e, http.MethodGet, "/admin/messages/state", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	b := conversation(t, body, "b")
	if b["unread"] != float64(1) || b["last_message"] != "ping" {
		t.Fatalf("b = %v", b)
	}
	if body["conversations"].([]any)[0].(map[string]any)["id"] != "b" {
		t.Fatalf("b not on top: %v", body["conversations"])
	}
	if n := backend.listCalls(); n != 1 {
		t.Fatalf("state reloaded the list: %d calls", n)
	}

	// a reload does not lose what the backend has not seen yet
	rec = serve(e, http.MethodGet, "/admin/messages", "", nil)
	b = conversation(t, decodeBody(t, rec), "b")
	if b["unread"] != float64(1) || b["last_message"] != "ping" {
		t.Fatalf("after reload b = %v", b)
	}
}

func TestInboxOpenMarksReadAndClose(t *testing.T) {
	e, hub, backend := inboxServer(t)

	rec := serve(e, http.MethodGet, "/admin/messages/a", "", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["open_id"] != "a" {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	backend.mu.Lock()
	reads := backend.reads
	backend.mu.Unlock()
	if len(reads) != 1 || reads[0] != "a" {
		t.Fatalf("reads = %v", reads)
	}

	rec = serve(e, http.MethodPost, "/admin/messages/close", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := decodeBody(t, rec)["open_id"]; ok {
		t.Fatalf("still open: %s", rec.Body.String())
	}
	hub.HandleMessage(model.Message{ID: "a-2", ConversationID: "a", Body: "later", Direction: model.DirectionInbound})
	rec = serve(e, http.MethodGet, "/admin/messages/state", "", nil)
	if a := conversation(t, decodeBody(t, rec), "a"); a["unread"] != float64(1) {
		t.Fatalf("a = %v", a)
	}
}

func TestInboxStateLoadsOnFirstUse(t *testing.T) {
	e, _, backend := inboxServer(t)
	rec := serve(e, http.MethodGet, "/admin/messages/state", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	conversation(t, decodeBody(t, rec), "a")
	serve(e, http.MethodGet, "/admin/messages/state", "", nil)
	if n := backend.listCalls(); n != 1 {
		t.Fatalf("list calls = %d", n)
	}
}
