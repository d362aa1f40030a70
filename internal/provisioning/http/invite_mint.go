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

type InviteMintHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP godoc
//
//	@Summary		Mint Invitation Endpoint
//	@Description	Create a new invite token of the given kind. The raw token is returned exactly once.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			X-Admin-Token	header		string						true	"Static admin token"
//	@Param			request			body		diarysdk.MintInviteRequest	true	"Invite parameters"
//	@Success		200				{object}	diarysdk.MintInviteResponse	"inviteId, token"
//	@Failure		400				{object}	diarysdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	diarysdk.ErrorResponse		"missing admin token"
//	@Failure		403				{object}	diarysdk.ErrorResponse		"invalid admin token"
//	@Router			/v1/invites/mint [post].
func (h *InviteMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req diarysdk.MintInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, "Invalid JSON body").WriteError(w)
		return
	}

	kind := domain.InviteKind(req.Kind)
	details, err := mintDetails(kind, req)
	if err != nil {
		diarysdk.NewAPIError(http.StatusBadRequest,
			diarysdk.ErrCodeInvalidRequest, err.Error()).WriteError(w)
		return
	}

	invite, err := h.InviteService.MintInvite(ctx, service.MintParams{
		Kind:      kind,
		ExpiresAt: req.ExpiresAt,
		NoExpiry:  req.NoExpiry,
		Metadata:  req.Metadata,
		Details:   details,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInviteRequest) {
			diarysdk.NewAPIError(http.StatusBadRequest,
				diarysdk.ErrCodeInvalidRequest, "Invalid invite parameters").WriteError(w)
			return
		}
		log.Error("failed to mint invite", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to mint invite").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, diarysdk.MintInviteResponse{
		Success: true,
		Data: diarysdk.MintInviteData{
			InviteID:  invite.ID,
			Token:     invite.Token,
			Kind:      string(invite.Kind),
			ExpiresAt: invite.ExpiresAt,
		},
	})
}

// mintDetails builds the kind-specific payload from the flat request.
func mintDetails(kind domain.InviteKind, req diarysdk.MintInviteRequest) (domain.InviteDetails, error) {
	switch kind {
	case domain.KindOrganizationRegistration:
		return domain.OrganizationRegistrationDetails{
			OrganizationType: domain.OrganizationType(req.OrganizationType),
			InvitedEmail:     req.InvitedEmail,
			InvitedName:      req.InvitedName,
		}, nil
	case domain.KindOrganizationEmployee:
		if req.OrganizationID == "" {
			return nil, errors.New("organizationId is required")
		}
		return domain.OrganizationEmployeeDetails{
			OrganizationID: req.OrganizationID,
			Role:           domain.EmployeeRole(req.Role),
		}, nil
	case domain.KindOrganizationClient:
		if req.OrganizationID == "" || req.PatientCardID == "" {
			return nil, errors.New("organizationId and patientCardId are required")
		}
		return domain.OrganizationClientDetails{
			OrganizationID: req.OrganizationID,
			PatientCardID:  req.PatientCardID,
			DiaryID:        req.DiaryID,
			InvitedPhone:   req.InvitedPhone,
			InvitedName:    req.InvitedName,
		}, nil
	case domain.KindCaregiverClient:
		if req.CaregiverID == "" {
			return nil, errors.New("caregiverId is required")
		}
		return domain.CaregiverClientDetails{
			CaregiverID:  req.CaregiverID,
			InvitedPhone: req.InvitedPhone,
			InvitedName:  req.InvitedName,
		}, nil
	case domain.KindAdminStatic:
		return nil, nil
	default:
		return nil, errors.New("unknown invite kind")
	}
}
