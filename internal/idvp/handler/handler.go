package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"idvmgt/internal/idvp/models"
	"idvmgt/pkg/platform/httputil"
	request "idvmgt/pkg/platform/middleware/request"
	"idvmgt/pkg/requestcontext"
	dErrors "idvmgt/pkg/domain-errors"
)

// Service defines the provider operations exposed over HTTP.
type Service interface {
	Add(ctx context.Context, tenantID int, provider *models.Provider) (*models.Provider, error)
	Update(ctx context.Context, tenantID int, old, updated *models.Provider) (*models.Provider, error)
	Delete(ctx context.Context, tenantID int, id string) error
	Get(ctx context.Context, tenantID int, id string) (*models.Provider, error)
	List(ctx context.Context, tenantID int, limit, offset *int, filter string) ([]*models.Provider, error)
	Count(ctx context.Context, tenantID int, filter string) (int, error)
}

// Handler serves the provider management API.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the provider routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/providers", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{idvpId}", h.handleGet)
		r.Put("/{idvpId}", h.handleUpdate)
		r.Delete("/{idvpId}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProviderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Add(ctx, requestcontext.TenantID(ctx), req.ToModel())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to add provider", err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+created.UUID)
	httputil.WriteJSON(w, http.StatusCreated, toProviderResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"), "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offset, err := intParam(query.Get("offset"), "offset")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	filter := query.Get("filter")

	providers, err := h.service.List(ctx, tenantID, limit, offset, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list providers", err)
		return
	}
	total, err := h.service.Count(ctx, tenantID, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to count providers", err)
		return
	}

	startIndex := 1
	if offset != nil {
		startIndex = *offset + 1
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(providers, total, startIndex))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider, err := h.service.Get(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "idvpId"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProviderResponse(provider))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	tenantID := requestcontext.TenantID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProviderRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	old, err := h.service.Get(ctx, tenantID, chi.URLParam(r, "idvpId"))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load provider for update", err)
		return
	}
	updated, err := h.service.Update(ctx, tenantID, old, req.ToModel())
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update provider", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProviderResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, requestcontext.TenantID(ctx), chi.URLParam(r, "idvpId")); err != nil {
		h.writeServiceError(ctx, w, "failed to delete provider", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func intParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, name+" must be an integer")
	}
	return &v, nil
}
