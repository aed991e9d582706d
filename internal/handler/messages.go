package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/inbox"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/middleware"
)

// InboxHandler serves the WhatsApp inbox.  Each admin session owns one
// inbox in the hub; realtime events reach it through the hub's single
// channel subscription.
type InboxHandler struct {
	Hub *inbox.Hub
	API *api.Client
	Log logging.Logger
	Now func() time.Time
}

func NewInboxHandler(hub *inbox.Hub, c *api.Client, log logging.Logger) *InboxHandler {
	if hub == nil || c == nil {
		panic("nil hub or client passed to NewInboxHandler")
	}
	return &InboxHandler{Hub: hub, API: c, Log: logging.OrNoOp(log), Now: time.Now}
}

func (h *InboxHandler) inbox(c echo.Context) *inbox.Inbox {
	in, _ := h.session(c)
	return in
}

func (h *InboxHandler) session(c echo.Context) (*inbox.Inbox, bool) {
	sess, _ := middleware.SessionFrom(c)
	in, created := h.Hub.For(sess.ID, h.API.WithToken(sess.Token))
	if created {
		h.Log.Debug("inbox: opened for session", "user", sess.User.ID)
	}
	return in, created
}

func (h *InboxHandler) render(in *inbox.Inbox) inbox.View {
	return inbox.Render(in.Snapshot(), h.Now())
}

// Conversations reloads and returns the conversation list.
func (h *InboxHandler) Conversations(c echo.Context) error {
	in := h.inbox(c)
	if err := in.LoadConversations(c.Request().Context()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.render(in))
}

// Open loads the thread of :id and clears its unread counter.
func (h *InboxHandler) Open(c echo.Context) error {
	in := h.inbox(c)
	if err := in.Open(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.render(in))
}

// State returns the inbox as realtime events left it, without asking the
// backend.  Only a session's first request loads the conversation list.
func (h *InboxHandler) State(c echo.Context) error {
	in, created := h.session(c)
	if created {
		if err := in.LoadConversations(c.Request().Context()); err != nil {
			return fail(c, err)
		}
	}
	return c.JSON(http.StatusOK, h.render(in))
}

// Close leaves the open thread; later inbound messages for it count as
// unread.
func (h *InboxHandler) Close(c echo.Context) error {
	in := h.inbox(c)
	in.CloseConversation()
	return c.JSON(http.StatusOK, h.render(in))
}

type replyReq struct {
	Body string `json:"body" form:"body"`
}

// Reply sends a message to :id, opening it first when another conversation
// is open.  A failed send answers with the inbox state, where the text is
// back in the draft.
func (h *InboxHandler) Reply(c echo.Context) error {
	var req replyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	in := h.inbox(c)
	id := c.Param("id")
	if in.Snapshot().OpenID != id {
		if err := in.Open(ctx, id); err != nil {
			return fail(c, err)
		}
	}
	msg, err := in.SendReply(ctx, req.Body)
	if err != nil {
		status, body := errorBody(err)
		body["inbox"] = h.render(in)
		return c.JSON(status, body)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg, "inbox": h.render(in)})
}

// SaveDraft keeps unsent text for :id.
func (h *InboxHandler) SaveDraft(c echo.Context) error {
	var req replyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	h.inbox(c).SetDraft(c.Param("id"), req.Body)
	return c.NoContent(http.StatusNoContent)
}
