package http

import (
	"net/http"

	"github.com/carelog/carediary/internal/provisioning/domain"
	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/slogx"
)

type InviteValidateHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP godoc
//
//	@Summary		Validate Invitation Endpoint
//	@Description	Check an invite token without consuming it so the registration form can render kind-appropriate fields
//	@Tags			Invitations
//	@Produce		json
//	@Param			token	query		string							true	"Invite token from the registration link"
//	@Success		200		{object}	diarysdk.ValidateInviteResponse	"kind plus pre-bound hints"
//	@Failure		400		{object}	diarysdk.ErrorResponse			"error, error_description"
//	@Failure		404		{object}	diarysdk.ErrorResponse			"invite not found"
//	@Failure		410		{object}	diarysdk.ErrorResponse			"invite used, revoked or expired"
//	@Router			/v1/invites/validate [get].
func (h *InviteValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "token query parameter is required").WriteError(w)
		return
	}

	invite, err := h.InviteService.ValidateInvite(ctx, token)
	if err != nil {
		writeAcceptError(w, log, err)
		return
	}

	data := diarysdk.ValidateInviteData{Kind: string(invite.Kind)}
	switch d := invite.Details.(type) {
	case domain.OrganizationRegistrationDetails:
		data.InvitedEmail = d.InvitedEmail
		data.InvitedName = d.InvitedName
	case domain.OrganizationEmployeeDetails:
		data.OrganizationID = d.OrganizationID
	case domain.OrganizationClientDetails:
		data.OrganizationID = d.OrganizationID
		data.InvitedPhone = d.InvitedPhone
		data.InvitedName = d.InvitedName
	case domain.CaregiverClientDetails:
		data.InvitedPhone = d.InvitedPhone
		data.InvitedName = d.InvitedName
	}

	httpx.WriteJSON(w, http.StatusOK, diarysdk.ValidateInviteResponse{
		Success: true,
		Data:    data,
	})
}
