package http

import (
	"errors"
	"net/http"

	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/diarysdk"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/slogx"
)

type ProfileHandler struct {
	Store store.Store
}

// ServeHTTP godoc
//
//	@Summary		Profile Endpoint
//	@Description	Return the authenticated caller's provisioned profile
//	@Tags			Profile
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	diarysdk.ProfileResponse	"userId, role, linkage"
//	@Failure		401	{object}	diarysdk.ErrorResponse		"missing or invalid token"
//	@Failure		404	{object}	diarysdk.ErrorResponse		"no profile provisioned yet"
//	@Router			/v1/profile [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		diarysdk.NewAPIError(http.StatusUnauthorized,
			diarysdk.ErrCodeInvalidCredentials, "Authentication required").WriteError(w)
		return
	}

	profile, err := h.Store.Profiles().GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			diarysdk.NewAPIError(http.StatusNotFound,
				diarysdk.ErrCodeInvalidRequest, "No profile provisioned for this account").WriteError(w)
			return
		}
		log.Error("failed to load profile", "err", err)
		diarysdk.NewAPIError(http.StatusInternalServerError,
			diarysdk.ErrCodeServerError, "Failed to load profile").WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, diarysdk.ProfileResponse{
		Success: true,
		Data: diarysdk.ProfileData{
			UserID:         profile.UserID,
			Role:           string(profile.Role),
			OrganizationID: profile.OrganizationID,
			ClientID:       profile.ClientID,
			Phone:          profile.Phone,
		},
	})
}
