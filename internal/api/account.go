package api

import (
	"context"
	"fmt"
)

// Login exchanges a username and password for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.post(ctx, "/login/", credentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("login %s: %w", username, err)
	}
	if resp.Access == "" {
		return LoginResponse{}, ErrNoAccessToken
	}

	c.logger.Info("logged in", "username", username)
	return resp, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, password string) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.post(ctx, "/register/", credentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("register %s: %w", username, err)
	}

	c.logger.Info("registered", "username", username)
	return resp, nil
}
