package inbox

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/votemamu/web/internal/model"
)

// ConversationItem is one row of the conversation list.
type ConversationItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	LastMessage string `json:"last_message"`
	When        string `json:"when,omitempty"`
	Unread      int    `json:"unread"`
	Active      bool   `json:"active"`
}

// MessageItem is one bubble of the thread.
type MessageItem struct {
	ID       string `json:"id"`
	Body     string `json:"body"`
	Outbound bool   `json:"outbound"`
	Status   string `json:"status"`
	Pending  bool   `json:"pending"`
	When     string `json:"when"`
}

// View is the presentation model of the inbox screen.
type View struct {
	Conversations []ConversationItem `json:"conversations"`
	OpenID        string             `json:"open_id,omitempty"`
	Thread        []MessageItem      `json:"thread"`
	Draft         string             `json:"draft"`
	TotalUnread   int                `json:"total_unread"`
}

// Render formats s relative to now.
func Render(s Snapshot, now time.Time) View {
	v := View{OpenID: s.OpenID, Draft: s.Draft}
	for _, c := range s.Conversations {
		item := ConversationItem{
			ID:          c.ID,
			Name:        c.Name,
			Phone:       c.Phone,
			LastMessage: c.LastMessage,
			Unread:      c.UnreadCount,
			Active:      c.ID == s.OpenID,
		}
		if item.Name == "" {
			item.Name = c.Phone
		}
		if c.LastMessageAt != nil {
			item.When = humanize.RelTime(*c.LastMessageAt, now, "ago", "from now")
		}
		v.TotalUnread += c.UnreadCount
		v.Conversations = append(v.Conversations, item)
	}
	for _, m := range s.Thread {
		v.Thread = append(v.Thread, MessageItem{
			ID:       m.ID,
			Body:     m.Body,
			Outbound: m.Direction == model.DirectionOutbound,
			Status:   m.Status,
			Pending:  m.Status == model.StatusPending,
			When:     m.CreatedAt.Format("15:04"),
		})
	}
	return v
}
