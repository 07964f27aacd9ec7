package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"idvmgt/internal/idv/models"
	dErrors "idvmgt/pkg/domain-errors"
	"idvmgt/pkg/platform/httputil"
	request "idvmgt/pkg/platform/middleware/request"
	"idvmgt/pkg/requestcontext"
)

// Service defines the claim and verification operations exposed over HTTP.
type Service interface {
	AddClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) ([]*models.Claim, error)
	UpdateClaims(ctx context.Context, tenantID int, userID string, claims []*models.Claim) ([]*models.Claim, error)
	UpdateClaim(ctx context.Context, tenantID int, userID string, claim *models.Claim) (*models.Claim, error)
	GetClaim(ctx context.Context, tenantID int, userID, claimID string) (*models.Claim, error)
	GetClaims(ctx context.Context, tenantID int, userID, providerID string) ([]*models.Claim, error)
	VerifyIdentity(ctx context.Context, tenantID int, userID string, data *models.VerifierData) (*models.VerifierData, error)
}

// Handler serves the claim and verification API.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user scoped routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users/{userId}", func(r chi.Router) {
		r.Post("/claims", h.handleAddClaims)
		r.Put("/claims", h.handleReplaceClaims)
		r.Get("/claims", h.handleListClaims)
		r.Get("/claims/{claimId}", h.handleGetClaim)
		r.Put("/claims/{claimId}", h.handleUpdateClaim)
		r.Post("/verify", h.handleVerify)
	})
}

func (h *Handler) handleAddClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClaimsRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	added, err := h.service.AddClaims(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"), req.ToModels())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to add claims", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toClaimResponses(added))
}

func (h *Handler) handleReplaceClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClaimsRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	replaced, err := h.service.UpdateClaims(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"), req.ToModels())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to replace claims", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponses(replaced))
}

func (h *Handler) handleListClaims(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, err := h.service.GetClaims(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"), r.URL.Query().Get("idvpId"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list claims", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponses(claims))
}

func (h *Handler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claim, err := h.service.GetClaim(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"), chi.URLParam(r, "claimId"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(claim))
}

func (h *Handler) handleUpdateClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClaimUpdateRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	updated, err := h.service.UpdateClaim(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"),
		req.ToModel(chi.URLParam(r, "claimId")))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update claim", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(updated))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.VerifyIdentity(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "userId"), req.ToModel())
	if err != nil {
		h.writeServiceError(ctx, w, "identity verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerifyResponse(result))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if de, ok := dErrors.As(err); ok && de.IsClient() {
		h.logger.WarnContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"code", de.Reason,
			"error", err,
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
