package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/moderation/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the moderation operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, targetType models.TargetType, targetID, reason string) (*models.FlagRequest, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.FlagRequest, error)
	Approve(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error)
	Reject(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error)
	ClearFlag(ctx context.Context, targetType models.TargetType, targetID string) error
}

// Handler wires moderation endpoints to the queue service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterContributor mounts the flag submission endpoints. The caller may
// wrap this group in a rate limiter.
func (h *Handler) RegisterContributor(r chi.Router) {
	r.Post("/ngos/{targetID}/flag-request", h.handleSubmit(models.TargetNGO))
	r.Post("/campaigns/{targetID}/flag-request", h.handleSubmit(models.TargetCampaign))
}

// RegisterAdmin mounts the moderation queue endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/flag-requests", h.HandleList)
	r.Put("/flag-requests/{requestID}/approve", h.HandleApprove)
	r.Put("/flag-requests/{requestID}/reject", h.HandleReject)
	r.Put("/flags/{targetType}/{targetID}/resolve", h.HandleClearFlag)
}

func (h *Handler) handleSubmit(targetType models.TargetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		targetID := chi.URLParam(r, "targetID")
		req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}

		flagReq, err := h.service.Submit(ctx, targetType, targetID, req.Reason)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to submit flag request",
				"request_id", requestID,
				"target_type", string(targetType),
				"target_id", targetID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, FromFlagRequest(flagReq))
	}
}

// HandleList handles GET /admin/flag-requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := models.ListFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = models.RequestStatus(raw)
	}
	if raw := r.URL.Query().Get("target_type"); raw != "" {
		targetType, err := models.ParseTargetType(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.TargetType = targetType
	}

	requests, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFlagRequests(requests))
}

// HandleApprove handles PUT /admin/flag-requests/{requestID}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve)
}

// HandleReject handles PUT /admin/flag-requests/{requestID}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.FlagRequestID) (*models.FlagRequest, error)) {
	ctx := r.Context()
	requestID, err := id.ParseFlagRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resolved, err := fn(ctx, requestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve flag request",
			"request_id", requestcontext.RequestID(ctx),
			"flag_request_id", requestID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFlagRequest(resolved))
}

// HandleClearFlag handles PUT /admin/flags/{targetType}/{targetID}/resolve.
func (h *Handler) HandleClearFlag(w http.ResponseWriter, r *http.Request) {
	targetType, err := models.ParseTargetType(chi.URLParam(r, "targetType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.ClearFlag(r.Context(), targetType, chi.URLParam(r, "targetID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
