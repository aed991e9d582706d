package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/votemamu/web/internal/model"
)

const whatsappPath = "admin/whatsapp/conversations"

// Conversations lists inbox conversations, most recent first.
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	env, err := get[[]model.Conversation](ctx, c, whatsappPath, nil)
	return env.Data, err
}

// Thread returns the messages of a conversation in chronological order.
func (c *Client) Thread(ctx context.Context, conversationID string) ([]model.Message, error) {
	env, err := get[[]model.Message](ctx, c, whatsappPath+"/"+url.PathEscape(conversationID)+"/messages", nil)
	return env.Data, err
}

// Reply sends an outbound message and returns it as stored by the backend.
func (c *Client) Reply(ctx context.Context, conversationID, body string) (model.Message, error) {
	env, err := send[model.Message](ctx, c, http.MethodPost,
		whatsappPath+"/"+url.PathEscape(conversationID)+"/reply", map[string]string{"message": body})
	return env.Data, err
}

// MarkRead clears the unread counter of a conversation on the backend.
func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	_, err := send[struct{}](ctx, c, http.MethodPost, whatsappPath+"/"+url.PathEscape(conversationID)+"/read", nil)
	return err
}
