package diarysdk

import (
	"context"
	"net/http"
)

// SignIn authenticates with email (or pseudo-email) and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var resp SignInResponse
	req := SignInRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", req, &resp, nil); err != nil {
		return Session{}, err
	}
	return resp.Data, nil
}

// Refresh rotates a refresh token and returns the new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	var resp SignInResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/refresh", req, &resp, nil); err != nil {
		return Session{}, err
	}
	return resp.Data, nil
}

// SignOut revokes a refresh token.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	req := RefreshRequest{RefreshToken: refreshToken}
	return c.doJSON(ctx, http.MethodPost, "/v1/sessions/revoke", req, nil, nil)
}

// Profile fetches the authenticated caller's provisioned profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (ProfileData, error) {
	var resp ProfileResponse
	headers := map[string]string{"Authorization": "Bearer " + accessToken}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/profile", nil, &resp, headers); err != nil {
		return ProfileData{}, err
	}
	return resp.Data, nil
}
