package model

import "time"

// Message directions and delivery states as reported by the backend.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Conversation is one WhatsApp contact thread in the admin inbox.
type Conversation struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
}

// Message is a single WhatsApp message within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Body           string    `json:"body"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}
