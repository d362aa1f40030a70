package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/carelog/carediary/internal/provisioning/service"
	"github.com/carelog/carediary/internal/provisioning/store"
	"github.com/carelog/carediary/pkg/httpx"
	"github.com/carelog/carediary/pkg/jwtx"
	"github.com/carelog/carediary/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.Signer
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	adminTokens []string

	// AcceptTimeout bounds a single redemption request end to end.
	AcceptTimeout time.Duration

	InviteService       *service.InviteService
	ProvisioningService *service.ProvisioningService
	SessionService      *service.SessionService
}

func NewRouter(
	signer *jwtx.Signer,
	buildVersion string,
	st store.Store,
	adminTokens []string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		adminTokens:  adminTokens,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvites()
	r.registerSessions()
	r.registerProfile()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Care Diary Provisioning API
//	@version		0.1.0
//	@description	Invite-token lifecycle and account provisioning for the care diary.
//	@description	Access tokens are EdDSA-signed JWTs verifiable via the JWKS endpoint.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvites() {
	acceptHandler := &InviteAcceptHandler{
		ProvisioningService: r.ProvisioningService,
		Timeout:             r.AcceptTimeout,
	}
	validateHandler := &InviteValidateHandler{InviteService: r.InviteService}
	mintHandler := &InviteMintHandler{InviteService: r.InviteService}
	adminHandler := &InviteAdminHandler{InviteService: r.InviteService}

	// POST /invites/accept - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/invites/accept",
		httpx.Chain(acceptHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /invites/validate - moderate rate limit (the registration form
	// polls this before rendering)
	r.Mux.Handle("GET /v1/invites/validate",
		httpx.Chain(validateHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Administrative lifecycle operations, guarded by the static admin token.
	r.Mux.Handle("POST /v1/invites/mint",
		httpx.Chain(mintHandler,
			httpx.RequireAdminToken(r.adminTokens),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/invites/{id}/revoke",
		httpx.Chain(http.HandlerFunc(adminHandler.HandleRevoke),
			httpx.RequireAdminToken(r.adminTokens),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/invites/{id}",
		httpx.Chain(http.HandlerFunc(adminHandler.HandleDelete),
			httpx.RequireAdminToken(r.adminTokens),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionHandler{SessionService: r.SessionService}

	// POST /sessions - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/sessions/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/sessions/revoke",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{Store: r.store}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /v1/profile", secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.signer),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
