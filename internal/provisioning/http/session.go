package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/slogx"
)

type SessionHandler struct {
	SessionService *service.SessionService
}

// HandleSignIn godoc
//
//	@Summary		Sign In Endpoint
//	@Description	Authenticate with email (or the phone-derived pseudo-email) and password
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		diarysdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	diarysdk.SignInResponse	"access and refresh tokens"
//	@Failure		401		{object}	diarysdk.ErrorResponse	"invalid credentials"
//	@Router			/v1/sessions [post].
func (h *SessionHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req diarysdk.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "Invalid JSON body").WriteError(w)
		return
	}

	session, err := h.SessionService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			diarysdk.NewAPIError(http.StatusUnauthorized,
				diarysdk.ErrCodeInvalidCredentials, "Email or password is incorrect").WriteError(w)
			return
		}
		log.Error("failed to sign in", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to sign in").WriteError(w)
		return
	}

	writeSession(w, session)
}

// HandleRefresh godoc
//
//	@Summary		Refresh Session Endpoint
//	@Description	Rotate a refresh token; the old token is revoked and a new pair is issued
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		diarysdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	diarysdk.SignInResponse	"new access and refresh tokens"
//	@Failure		401		{object}	diarysdk.ErrorResponse	"invalid refresh token"
//	@Router			/v1/sessions/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req diarysdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "refresh_token is required").WriteError(w)
		return
	}

	session, err := h.SessionService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			diarysdk.NewAPIError(http.StatusUnauthorized,
				diarysdk.ErrCodeInvalidRefreshToken, "Refresh token is invalid, expired or revoked").WriteError(w)
			return
		}
		log.Error("failed to refresh session", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to refresh session").WriteError(w)
		return
	}

	writeSession(w, session)
}

// HandleRevoke godoc
//
//	@Summary		Sign Out Endpoint
//	@Description	Revoke a refresh token (sign out)
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		diarysdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	map[string]bool			"success"
//	@Failure		401		{object}	diarysdk.ErrorResponse	"invalid refresh token"
//	@Router			/v1/sessions/revoke [post].
func (h *SessionHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req diarysdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "refresh_token is required").WriteError(w)
		return
	}

	if err := h.SessionService.RevokeRefreshToken(ctx, req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			diarysdk.NewAPIError(http.StatusUnauthorized,
				diarysdk.ErrCodeInvalidRefreshToken, "Refresh token is invalid or already revoked").WriteError(w)
			return
		}
		log.Error("failed to revoke refresh token", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to revoke refresh token").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeSession(w http.ResponseWriter, session domain.Session) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, diarysdk.SignInResponse{
		Success: true,
		Data: diarysdk.Session{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			TokenType:    session.TokenType,
			ExpiresIn:    session.ExpiresIn,
			ExpiresAt:    session.ExpiresAt,
		},
	})
}
