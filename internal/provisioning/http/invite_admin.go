package http

import (
	"errors"
	"net/http"

	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/slogx"
)

// InviteAdminHandler covers the administrative lifecycle operations on
// existing invites: revoke and delete. Both act only on unused tokens.
type InviteAdminHandler struct {
	InviteService *service.InviteService
}

// HandleRevoke godoc
//
//	@Summary		Revoke Invitation Endpoint
//	@Description	Withdraw an unused invite so its link stops working
//	@Tags			Invitations
//	@Produce		json
//	@Param			X-Admin-Token	header		string					true	"Static admin token"
//	@Param			id				path		string					true	"Invite id"
//	@Success		200				{object}	map[string]bool			"success"
//	@Failure		404				{object}	diarysdk.ErrorResponse	"invite not found"
//	@Failure		410				{object}	diarysdk.ErrorResponse	"invite already used or revoked"
//	@Router			/v1/invites/{id}/revoke [post].
func (h *InviteAdminHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inviteID := r.PathValue("id")
	if err := h.InviteService.RevokeInvite(ctx, inviteID); err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			diarysdk.NewAPIError(http.StatusNotFound,
				diarysdk.ErrCodeInviteNotFound, "Invite does not exist").WriteError(w)
		case errors.Is(err, service.ErrInviteAlreadyUsed):
			diarysdk.NewAPIError(http.StatusGone,
				diarysdk.ErrCodeInviteUsed, "Invite has already been used").WriteError(w)
		case errors.Is(err, service.ErrInviteRevoked):
			diarysdk.NewAPIError(http.StatusGone,
				diarysdk.ErrCodeInviteRevoked, "Invite is already revoked").WriteError(w)
		default:
			log.Error("failed to revoke invite", "err", err)
			diarysdk.NewAPIError(http.StatusInternalServerError,
				diarysdk.ErrCodeServerError, "Failed to revoke invite").WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete godoc
//
//	@Summary		Delete Invitation Endpoint
//	@Description	Hard-delete an unused invite and its detail record. Used invites are kept as the audit trail.
//	@Tags			Invitations
//	@Produce		json
//	@Param			X-Admin-Token	header		string					true	"Static admin token"
//	@Param			id				path		string					true	"Invite id"
//	@Success		200				{object}	map[string]bool			"success"
//	@Failure		404				{object}	diarysdk.ErrorResponse	"invite not found"
//	@Failure		410				{object}	diarysdk.ErrorResponse	"invite already used"
//	@Router			/v1/invites/{id} [delete].
func (h *InviteAdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inviteID := r.PathValue("id")
	if err := h.InviteService.DeleteInvite(ctx, inviteID); err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			diarysdk.NewAPIError(http.StatusNotFound,
				diarysdk.ErrCodeInviteNotFound, "Invite does not exist").WriteError(w)
		case errors.Is(err, service.ErrInviteAlreadyUsed):
			diarysdk.NewAPIError(http.StatusGone,
				diarysdk.ErrCodeInviteUsed, "Used invites cannot be deleted").WriteError(w)
		default:
			log.Error("failed to delete invite", "err", err)
			diarysdk.NewAPIError(http.StatusInternalServerError,
				diarysdk.ErrCodeServerError, "Failed to delete invite").WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
