package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/chat"
	"github.com/sudo-init-do/marketfront/internal/reservation"
	"github.com/sudo-init-do/marketfront/internal/timefmt"
)

// POST /chats
func (h *handlers) createChat(c echo.Context) error {
	var body struct {
		ProductID int64 `json:"productId"`
	}
	if err := c.Bind(&body); err != nil || body.ProductID <= 0 {
		return badRequest(c, "productId is required")
	}
	chatID, err := h.API.CreateChat(c.Request().Context(), identity(c).Auth(), body.ProductID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"chatId": chatID})
}

// GET /chats
func (h *handlers) chats(c echo.Context) error {
	chats, err := h.API.Chats(c.Request().Context(), identity(c).Auth())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"chats": chats})
}

// GET /chats/:id
// The room info and its history are fetched together.
func (h *handlers) chat(c echo.Context) error {
	chatID, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid chat id")
	}
	id := identity(c)
	auth := id.Auth()

	var (
		info    api.ChatInfo
		history []api.ChatMessage
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		info, err = h.API.Chat(ctx, auth, chatID)
		return err
	})
	g.Go(func() (err error) {
		history, err = h.API.ChatMessages(ctx, auth, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return h.fail(c, err)
	}

	now := h.Now()
	history = chat.SortHistory(history)
	messages := make([]messageView, len(history))
	for i, m := range history {
		messages[i] = messageView{ChatMessage: m, Mine: m.SenderID == id.UserID, Time: timefmt.Clock(m.CreatedAt.Time, now)}
	}
	wf := reservation.New(h.API, id, info)
	return c.JSON(http.StatusOK, echo.Map{
		"chat":     info,
		"messages": messages,
		"isSeller": wf.IsSeller(),
		"reasons":  reservation.Reasons,
	})
}

// DELETE /chats/:id
func (h *handlers) leaveChat(c echo.Context) error {
	chatID, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid chat id")
	}
	if err := h.API.LeaveChat(c.Request().Context(), identity(c).Auth(), chatID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// loadWorkflow fetches the room and wraps it for the acting user.
func (h *handlers) loadWorkflow(c echo.Context) (*reservation.Workflow, error) {
	chatID, ok := idParam(c)
	if !ok {
		return nil, badRequest(c, "invalid chat id")
	}
	id := identity(c)
	info, err := h.API.Chat(c.Request().Context(), id.Auth(), chatID)
	if err != nil {
		return nil, h.fail(c, err)
	}
	return reservation.New(h.API, id, info), nil
}

// POST /chats/:id/reservation
func (h *handlers) createReservation(c echo.Context) error {
	wf, err := h.loadWorkflow(c)
	if wf == nil {
		return err
	}
	if err := wf.Create(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"chat": wf.Info(), "isReserved": wf.Reserved()})
}

// DELETE /chats/:id/reservation
func (h *handlers) cancelReservation(c echo.Context) error {
	var body struct {
		ReasonID int    `json:"reasonId"`
		Detail   string `json:"detail"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	wf, err := h.loadWorkflow(c)
	if wf == nil {
		return err
	}
	if err := wf.Cancel(c.Request().Context(), body.ReasonID, body.Detail); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"chat": wf.Info(), "isReserved": wf.Reserved()})
}
