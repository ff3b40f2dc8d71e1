package client

import (
	"context"
	"encoding/json"
	"net/http"

	"deckhand/internal/errors"
)

const loginPath = "/api/login"

// LoginRequest represents the login request payload
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// Login exchanges the configured password for a session token
func (c *Client) Login(ctx context.Context) error {
	if c.password == "" {
		return errors.New(errors.ErrUnauthorized, "no password configured for the deckhand server")
	}

	resp, err := c.doRequest(ctx, http.MethodPost, loginPath, LoginRequest{Password: c.password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to decode response", err)
	}
	if loginResp.Token == "" {
		return errors.New(errors.ErrAuthFailed, "server returned no session token")
	}

	return c.SetToken(loginResp.Token)
}

// Logout ends the session on the server and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	if !c.IsAuthenticated() {
		return nil
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.ClearToken(); err != nil {
		return errors.Wrap(errors.ErrInternal, "failed to clear token", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return decodeError(resp)
	}
	return nil
}
