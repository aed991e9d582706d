// Package inbox is the admin messaging inbox: the conversation list, the
// open thread, per-conversation drafts and the realtime events that update
// them.
package inbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
	"github.com/votemamu/web/internal/realtime"
)

// API is the messaging slice of the REST client.
type API interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
	Thread(ctx context.Context, conversationID string) ([]model.Message, error)
	Reply(ctx context.Context, conversationID, body string) (model.Message, error)
	MarkRead(ctx context.Context, conversationID string) error
}

// ErrNoConversation is returned by SendReply when nothing is open.
var ErrNoConversation = errors.New("inbox: no open conversation")

const pendingPrefix = "pending-"

// Inbox is safe for concurrent use; realtime events arrive on the transport
// goroutine while requests drive it from handlers.
type Inbox struct {
	api API
	log logging.Logger
	now func() time.Time

	mu            sync.Mutex
	conversations []model.Conversation
	openID        string
	thread        []model.Message
	drafts        map[string]string
	// conversations changed by realtime events since the last load
	touched map[string]bool
}

// Option configures an Inbox.
type Option func(*Inbox)

func WithLogger(l logging.Logger) Option { return func(in *Inbox) { in.log = logging.OrNoOp(l) } }

func WithClock(now func() time.Time) Option { return func(in *Inbox) { in.now = now } }

func New(api API, opts ...Option) *Inbox {
	in := &Inbox{api: api, log: logging.NoOp(), now: time.Now, drafts: map[string]string{}, touched: map[string]bool{}}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// LoadConversations refreshes the conversation list from the backend.
// Conversations touched by realtime events keep their newer last message
// and the larger unread count, and stay on top, until the backend has
// caught up with them.
func (in *Inbox) LoadConversations(ctx context.Context) error {
	convs, err := in.api.Conversations(ctx)
	if err != nil {
		in.log.Warn("inbox: conversations unavailable", "error", err)
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	var top, rest []model.Conversation
	for _, local := range in.conversations {
		if in.touched[local.ID] {
			top = append(top, local)
		}
	}
	for _, c := range convs {
		i := indexIn(top, c.ID)
		if i < 0 {
			rest = append(rest, c)
			continue
		}
		var behind bool
		top[i], behind = merge(c, top[i])
		if !behind {
			delete(in.touched, c.ID)
		}
	}
	in.conversations = append(top, rest...)
	return nil
}

// merge folds the local realtime view of a conversation into the backend's.
// behind reports whether the backend lacks something the local view has.
func merge(remote, local model.Conversation) (_ model.Conversation, behind bool) {
	if local.UnreadCount > remote.UnreadCount {
		remote.UnreadCount = local.UnreadCount
		behind = true
	}
	if local.LastMessageAt != nil && (remote.LastMessageAt == nil || local.LastMessageAt.After(*remote.LastMessageAt)) {
		remote.LastMessage = local.LastMessage
		remote.LastMessageAt = local.LastMessageAt
		behind = true
	}
	return remote, behind
}

// Open shows a conversation: its thread is loaded and its unread counter
// cleared, locally and on the backend.
func (in *Inbox) Open(ctx context.Context, id string) error {
	in.mu.Lock()
	in.openID = id
	in.thread = nil
	if i := in.indexOf(id); i >= 0 {
		in.conversations[i].UnreadCount = 0
	}
	in.mu.Unlock()

	msgs, err := in.api.Thread(ctx, id)
	if err != nil {
		in.log.Warn("inbox: thread unavailable", "conversation", id, "error", err)
		return err
	}
	if err := in.api.MarkRead(ctx, id); err != nil {
		in.log.Warn("inbox: mark read failed", "conversation", id, "error", err)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	// another conversation was opened meanwhile
	if in.openID != id {
		return nil
	}
	// keep events that arrived while the thread was loading
	for _, m := range in.thread {
		if !containsID(msgs, m.ID) {
			msgs = append(msgs, m)
		}
	}
	in.thread = msgs
	return nil
}

// CloseConversation leaves the thread view.
func (in *Inbox) CloseConversation() {
	in.mu.Lock()
	in.openID = ""
	in.thread = nil
	in.mu.Unlock()
}

// HandleMessage applies a received message.  A message for the open
// conversation joins the thread; an inbound message for any other
// conversation bumps its unread counter by one.  Either way the
// conversation moves to the top of the list.
func (in *Inbox) HandleMessage(m model.Message) {
	in.mu.Lock()
	defer in.mu.Unlock()

	open := m.ConversationID == in.openID
	if open {
		if i := in.messageIndex(m.ID); i >= 0 {
			in.thread[i] = m
		} else {
			in.thread = append(in.thread, m)
		}
	}

	i := in.indexOf(m.ConversationID)
	var conv model.Conversation
	if i >= 0 {
		conv = in.conversations[i]
		in.conversations = append(in.conversations[:i], in.conversations[i+1:]...)
	} else {
		conv = model.Conversation{ID: m.ConversationID}
	}
	if !open && m.Direction != model.DirectionOutbound {
		conv.UnreadCount++
	}
	conv.LastMessage = m.Body
	at := m.CreatedAt
	if at.IsZero() {
		at = in.now()
	}
	conv.LastMessageAt = &at
	in.conversations = append([]model.Conversation{conv}, in.conversations...)
	in.touched[conv.ID] = true
}

// HandleStatus patches the delivery status of a message in the open thread.
// It reports whether a message was updated.
func (in *Inbox) HandleStatus(u realtime.StatusUpdate) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.messageIndex(u.MessageID)
	if i < 0 {
		return false
	}
	in.thread[i].Status = u.Status
	return true
}

// SetDraft stores the unsent text of a conversation.
func (in *Inbox) SetDraft(conversationID, text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if text == "" {
		delete(in.drafts, conversationID)
		return
	}
	in.drafts[conversationID] = text
}

func (in *Inbox) Draft(conversationID string) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.drafts[conversationID]
}

// SendReply sends text to the open conversation optimistically: the draft
// is cleared and a pending message shown before the request is made.  On
// failure the pending message is withdrawn and the text restored as the
// draft.
func (in *Inbox) SendReply(ctx context.Context, text string) (model.Message, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return model.Message{}, forms.Invalid("message", "বার্তা লিখুন", "REPLY_EMPTY")
	}

	in.mu.Lock()
	convID := in.openID
	if convID == "" {
		in.mu.Unlock()
		return model.Message{}, ErrNoConversation
	}
	pending := model.Message{
		ID:             pendingPrefix + uuid.NewString(),
		ConversationID: convID,
		Body:           body,
		Direction:      model.DirectionOutbound,
		Status:         model.StatusPending,
		CreatedAt:      in.now(),
	}
	delete(in.drafts, convID)
	in.thread = append(in.thread, pending)
	in.mu.Unlock()

	sent, err := in.api.Reply(ctx, convID, body)

	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.messageIndex(pending.ID)
	if err != nil {
		if i >= 0 {
			in.thread = append(in.thread[:i], in.thread[i+1:]...)
		}
		in.drafts[convID] = text
		in.log.Warn("inbox: reply failed", "conversation", convID, "error", err)
		return model.Message{}, err
	}
	if sent.ID == "" {
		sent = pending
		sent.Status = model.StatusSent
	}
	if sent.ConversationID == "" {
		sent.ConversationID = convID
	}
	if i >= 0 && in.openID == convID {
		// a realtime echo of the same message may already be in the thread
		if j := in.messageIndex(sent.ID); j >= 0 && j != i {
			in.thread = append(in.thread[:i], in.thread[i+1:]...)
		} else {
			in.thread[i] = sent
		}
	}
	if c := in.indexOf(convID); c >= 0 {
		conv := in.conversations[c]
		conv.LastMessage = sent.Body
		at := sent.CreatedAt
		conv.LastMessageAt = &at
		in.conversations = append(in.conversations[:c], in.conversations[c+1:]...)
		in.conversations = append([]model.Conversation{conv}, in.conversations...)
	}
	return sent, nil
}

// Snapshot is a consistent copy of the inbox state.
type Snapshot struct {
	Conversations []model.Conversation
	OpenID        string
	Thread        []model.Message
	Draft         string
}

func (in *Inbox) Snapshot() Snapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	s := Snapshot{
		Conversations: append([]model.Conversation(nil), in.conversations...),
		OpenID:        in.openID,
		Thread:        append([]model.Message(nil), in.thread...),
	}
	if in.openID != "" {
		s.Draft = in.drafts[in.openID]
	}
	return s
}

// Watch feeds channel events into the inbox until ctx ends.  The
// subscription is released however Watch returns.
func (in *Inbox) Watch(ctx context.Context, sub realtime.Subscriber, channel string) error {
	s, err := sub.Subscribe(ctx, channel, realtime.Handlers{
		OnMessage: in.HandleMessage,
		OnStatus:  func(u realtime.StatusUpdate) { in.HandleStatus(u) },
	})
	if err != nil {
		return err
	}
	defer s.Close()
	<-ctx.Done()
	return nil
}

func (in *Inbox) indexOf(id string) int { return indexIn(in.conversations, id) }

func indexIn(convs []model.Conversation, id string) int {
	for i, c := range convs {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (in *Inbox) messageIndex(id string) int {
	for i, m := range in.thread {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func containsID(msgs []model.Message, id string) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}
