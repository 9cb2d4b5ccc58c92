package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/organization/models"
	"givehub/internal/organization/service"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the directory operations the handler exposes.
type Service interface {
	CreateProfile(ctx context.Context, req service.CreateRequest) (*models.Organization, error)
	Get(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	ListFlagged(ctx context.Context) ([]*models.Organization, error)
	SetFlagged(ctx context.Context, orgID id.OrganizationID, flagged bool, reason string) (*models.Organization, error)
}

// Handler wires directory endpoints to the organization service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the directory endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ngos", h.HandleList)
	r.Get("/ngos/{organizationID}", h.HandleGet)
}

// RegisterOrganization mounts endpoints restricted to organization accounts.
func (h *Handler) RegisterOrganization(r chi.Router) {
	r.Post("/ngos", h.HandleCreate)
}

// RegisterAdmin mounts the admin moderation views.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/ngos/flagged", h.HandleListFlagged)
	r.Put("/ngos/{organizationID}/unflag", h.HandleUnflag)
}

// HandleCreate handles POST /ngos.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	org, err := h.service.CreateProfile(ctx, service.CreateRequest{
		Name:     req.Name,
		Category: req.ParsedCategory(),
		Location: req.Location,
		Mission:  req.Mission,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create organization profile",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromOrganization(org))
}

// HandleList handles GET /ngos.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOrganizations(orgs))
}

// HandleGet handles GET /ngos/{organizationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	org, err := h.service.Get(r.Context(), orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOrganization(org))
}

// HandleListFlagged handles GET /admin/ngos/flagged.
func (h *Handler) HandleListFlagged(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.ListFlagged(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOrganizations(orgs))
}

// HandleUnflag handles PUT /admin/ngos/{organizationID}/unflag.
func (h *Handler) HandleUnflag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	org, err := h.service.SetFlagged(ctx, orgID, false, "")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "organization flag cleared",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", org.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromOrganization(org))
}
