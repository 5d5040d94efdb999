package api

import (
	"context"
	"net/http"
)

// CreateChat opens (or returns the existing) chat between the caller and the
// product's seller.
func (c *Client) CreateChat(ctx context.Context, auth Auth, productID int64) (int64, error) {
	var out CreatedChat
	body := map[string]int64{"productId": productID}
	if err := c.send(ctx, private(http.MethodPost, "/api/chats", auth).withBody(body), &out); err != nil {
		return 0, err
	}
	return out.ChatID, nil
}

func (c *Client) Chats(ctx context.Context, auth Auth) ([]ChatSummary, error) {
	var out []ChatSummary
	if err := c.send(ctx, private(http.MethodGet, "/api/chats", auth), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Chat(ctx context.Context, auth Auth, chatID int64) (ChatInfo, error) {
	var out ChatInfo
	err := c.send(ctx, private(http.MethodGet, idPath("/api/chats/%d", chatID), auth), &out)
	return out, err
}

// ChatMessages returns the room history, oldest first.
func (c *Client) ChatMessages(ctx context.Context, auth Auth, chatID int64) ([]ChatMessage, error) {
	var out []ChatMessage
	if err := c.send(ctx, private(http.MethodGet, idPath("/api/chats/%d/messages", chatID), auth), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LeaveChat(ctx context.Context, auth Auth, chatID int64) error {
	return c.send(ctx, private(http.MethodDelete, idPath("/api/chats/%d", chatID), auth), nil)
}

func (c *Client) CreateReservation(ctx context.Context, auth Auth, chatID int64) error {
	body := map[string]int64{"chatId": chatID}
	return c.send(ctx, private(http.MethodPost, "/api/reservations", auth).withBody(body), nil)
}

func (c *Client) UpdateReservationStatus(ctx context.Context, auth Auth, chatID int64, req ReservationStatusRequest) error {
	return c.send(ctx, private(http.MethodPatch, idPath("/api/reservations/%d/status", chatID), auth).withBody(req), nil)
}
