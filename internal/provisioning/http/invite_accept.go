package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/slogx"
)

// DefaultAcceptTimeout bounds a redemption request. Identity creation plus
// the provisioning transaction normally complete well within a second.
const DefaultAcceptTimeout = 10 * time.Second

type InviteAcceptHandler struct {
	ProvisioningService *service.ProvisioningService
	Timeout             time.Duration
}

// ServeHTTP godoc
//
//	@Summary		Accept Invitation Endpoint
//	@Description	Redeem an invite token: creates the identity, provisions the account and returns an initial session
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		diarysdk.AcceptInviteRequest	true	"Redemption payload"
//	@Success		200		{object}	diarysdk.AcceptInviteResponse	"userId, role, session"
//	@Failure		400		{object}	diarysdk.ErrorResponse			"error, error_description"
//	@Failure		404		{object}	diarysdk.ErrorResponse			"invite not found"
//	@Failure		410		{object}	diarysdk.ErrorResponse			"invite used, revoked or expired"
//	@Failure		500		{object}	diarysdk.ErrorResponse			"error, error_description"
//	@Router			/v1/invites/accept [post].
func (h *InviteAcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultAcceptTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	log := slogx.FromContext(ctx)

	var req diarysdk.AcceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "Invalid JSON body").WriteError(w)
		return
	}

	result, err := h.ProvisioningService.AcceptInvite(ctx, service.AcceptRequest{
		Token:     req.Token,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeAcceptError(w, log, err)
		return
	}

	data := diarysdk.AcceptInviteData{
		UserID:         result.UserID,
		Role:           result.Role,
		OrganizationID: result.OrganizationID,
		ClientID:       result.ClientID,
	}
	if result.Session != nil {
		data.Session = &diarysdk.Session{
			AccessToken:  result.Session.AccessToken,
			RefreshToken: result.Session.RefreshToken,
			TokenType:    result.Session.TokenType,
			ExpiresIn:    result.Session.ExpiresIn,
			ExpiresAt:    result.Session.ExpiresAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, diarysdk.AcceptInviteResponse{
		Success: true,
		Data:    data,
	})
}

func writeAcceptError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidInviteRequest):
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "A required field is missing or invalid").WriteError(w)
	case errors.Is(err, service.ErrInvalidPhone):
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidPhone, "Phone number could not be normalized").WriteError(w)
	case errors.Is(err, service.ErrUnsupportedInviteKind):
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeUnsupportedKind, "This invite kind cannot be redeemed").WriteError(w)
	case errors.Is(err, service.ErrInviteNotFound):
		diarysdk.NewAPIError(http.StatusNotFound,
			diarysdk.ErrCodeInviteNotFound, "Invite token does not exist").WriteError(w)
	case errors.Is(err, service.ErrInviteExpired):
		diarysdk.NewAPIError(http.StatusGone,
			diarysdk.ErrCodeInviteExpired, "Invite has expired").WriteError(w)
	case errors.Is(err, service.ErrInviteAlreadyUsed):
		diarysdk.NewAPIError(http.StatusGone,
			diarysdk.ErrCodeInviteUsed, "Invite has already been used").WriteError(w)
	case errors.Is(err, service.ErrInviteRevoked):
		diarysdk.NewAPIError(http.StatusGone,
			diarysdk.ErrCodeInviteRevoked, "Invite has been revoked").WriteError(w)
	case errors.Is(err, service.ErrCorruptInvite):
		log.Error("corrupt invite encountered", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeCorruptInvite, "Invite record is inconsistent").WriteError(w)
	case errors.Is(err, service.ErrIdentityCreationFailed):
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeIdentityFailed, "Failed to create account identity").WriteError(w)
	case errors.Is(err, service.ErrProvisioningFailed):
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeProvisioningFailed, "Failed to provision account").WriteError(w)
	default:
		log.Error("failed to accept invite", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to accept invite").WriteError(w)
	}
}
