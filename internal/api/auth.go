package api

import (
	"context"
	"net/http"
)

func (c *Client) SendCode(ctx context.Context, req SendCodeRequest) error {
	return c.send(ctx, public(http.MethodPost, "/api/auth/send-code").withBody(req), nil)
}

func (c *Client) VerifyCode(ctx context.Context, req VerifyCodeRequest) error {
	return c.send(ctx, public(http.MethodPost, "/api/auth/verify-code").withBody(req), nil)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.send(ctx, public(http.MethodPost, "/api/auth/signup").withBody(req), nil)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	var out LoginResponse
	if err := c.send(ctx, public(http.MethodPost, "/api/auth/login").withBody(req), &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context, auth Auth) error {
	return c.send(ctx, private(http.MethodPost, "/api/auth/logout", auth), nil)
}
