package inbox

import (
	"context"
	"sync"
	"time"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/realtime"
)

// Hub keeps one Inbox per admin session and fans every channel event out
// to all of them, so the server holds a single subscription however many
// admins are signed in.
type Hub struct {
	log  logging.Logger
	opts []Option

	now  func() time.Time

	mu      sync.Mutex
	inboxes map[string]*Inbox
	seen    map[string]time.Time
}

func NewHub(log logging.Logger, opts ...Option) *Hub {
	return &Hub{
		log:     logging.OrNoOp(log),
		opts:    opts,
		now:     time.Now,
		inboxes: map[string]*Inbox{},
		seen:    map[string]time.Time{},
	}
}

// For returns the inbox of a session, creating it with api on first use.
func (h *Hub) For(sessionID string, api API) (in *Inbox, created bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[sessionID] = h.now()
	if in, ok := h.inboxes[sessionID]; ok {
		return in, false
	}
	in = New(api, append([]Option{WithLogger(h.log)}, h.opts...)...)
	h.inboxes[sessionID] = in
	return in, true
}

// Drop forgets the inbox of a session that ended.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	delete(h.inboxes, sessionID)
	delete(h.seen, sessionID)
	h.mu.Unlock()
}

// Len is the number of live inboxes.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.inboxes)
}

// Prune drops inboxes not used for idle.  Sessions that lapse in storage
// end without an event, so their inboxes only go away here.
func (h *Hub) Prune(idle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-idle)
	n := 0
	for id, at := range h.seen {
		if at.Before(cutoff) {
			delete(h.inboxes, id)
			delete(h.seen, id)
			n++
		}
	}
	return n
}

// Sweep prunes idle inboxes every interval until ctx ends.
func (h *Hub) Sweep(ctx context.Context, idle, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := h.Prune(idle); n > 0 {
				h.log.Debug("inbox: pruned idle inboxes", "count", n)
			}
		}
	}
}

func (h *Hub) all() []*Inbox {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Inbox, 0, len(h.inboxes))
	for _, in := range h.inboxes {
		out = append(out, in)
	}
	return out
}

func (h *Hub) HandleMessage(m model.Message) {
	for _, in := range h.all() {
		in.HandleMessage(m)
	}
}

func (h *Hub) HandleStatus(u realtime.StatusUpdate) {
	for _, in := range h.all() {
		in.HandleStatus(u)
	}
}

// Watch feeds channel events into every inbox until ctx ends.
func (h *Hub) Watch(ctx context.Context, sub realtime.Subscriber, channel string) error {
	s, err := sub.Subscribe(ctx, channel, realtime.Handlers{
		OnMessage: h.HandleMessage,
		OnStatus:  h.HandleStatus,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	h.log.Info("inbox: watching channel", "channel", channel)
	<-ctx.Done()
	return nil
}
