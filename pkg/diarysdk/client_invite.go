package diarysdk

import (
	"context"
	"net/http"
	"net/url"
)

// AcceptInvite redeems an invite token, creating the account and (usually)
// an initial session.
func (c *Client) AcceptInvite(ctx context.Context, req AcceptInviteRequest) (AcceptInviteData, error) {
	var resp AcceptInviteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/invites/accept", req, &resp, nil); err != nil {
		return AcceptInviteData{}, err
	}
	return resp.Data, nil
}

// ValidateInvite checks a token without consuming it.
func (c *Client) ValidateInvite(ctx context.Context, token string) (ValidateInviteData, error) {
	var resp ValidateInviteResponse
	path := "/v1/invites/validate?token=" + url.QueryEscape(token)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, nil); err != nil {
		return ValidateInviteData{}, err
	}
	return resp.Data, nil
}

// MintInvite creates an invite. Requires the admin token.
func (c *Client) MintInvite(ctx context.Context, req MintInviteRequest) (MintInviteData, error) {
	var resp MintInviteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/invites/mint", req, &resp, c.adminHeaders()); err != nil {
		return MintInviteData{}, err
	}
	return resp.Data, nil
}

// RevokeInvite withdraws an unused invite. Requires the admin token.
func (c *Client) RevokeInvite(ctx context.Context, inviteID string) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/invites/"+url.PathEscape(inviteID)+"/revoke", nil, nil, c.adminHeaders())
}

// DeleteInvite hard-deletes an unused invite. Requires the admin token.
func (c *Client) DeleteInvite(ctx context.Context, inviteID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/invites/"+url.PathEscape(inviteID), nil, nil, c.adminHeaders())
}
