package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/opportunity/models"
	"givehub/internal/opportunity/service"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the tracker operations the handler exposes.
type Service interface {
	CreateOpportunity(ctx context.Context, req service.CreateOpportunityRequest) (*models.Opportunity, error)
	Get(ctx context.Context, opportunityID id.OpportunityID) (*models.Opportunity, error)
	List(ctx context.Context) ([]*models.Opportunity, error)
	Apply(ctx context.Context, opportunityID id.OpportunityID, payload models.ApplicantInfo) (*models.Application, error)
	MarkCompleted(ctx context.Context, applicationID id.ApplicationID, hours int) (*models.Application, error)
	MyApplications(ctx context.Context) ([]*models.Application, error)
	ListPendingApprovals(ctx context.Context) ([]*models.Application, error)
	Decide(ctx context.Context, applicationID id.ApplicationID, decision id.Decision, note string) (*models.Application, error)
	Withdraw(ctx context.Context, applicationID id.ApplicationID) error
}

// Handler wires opportunity endpoints to the tracker service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public opportunity endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/opportunities", h.HandleList)
	r.Get("/opportunities/{opportunityID}", h.HandleGet)
}

// RegisterContributor mounts endpoints for authenticated contributors.
func (h *Handler) RegisterContributor(r chi.Router) {
	r.Post("/opportunities/{opportunityID}/apply", h.HandleApply)
	r.Get("/opportunities/my/applications", h.HandleMyApplications)
	r.Post("/opportunities/applications/{applicationID}/complete", h.HandleComplete)
	r.Delete("/opportunities/applications/{applicationID}", h.HandleWithdraw)
}

// RegisterOrganization mounts endpoints for organization accounts.
func (h *Handler) RegisterOrganization(r chi.Router) {
	r.Post("/opportunities", h.HandleCreate)
	r.Get("/opportunities/applications/pending-approvals", h.HandleListPending)
	r.Post("/opportunities/applications/{applicationID}/certificate/decision", h.HandleDecide)
}

// HandleCreate handles POST /opportunities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateOpportunityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	opportunity, err := h.service.CreateOpportunity(ctx, service.CreateOpportunityRequest{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Spots:       req.Spots,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create opportunity",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromOpportunity(opportunity))
}

// HandleList handles GET /opportunities.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	opportunities, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOpportunities(opportunities))
}

// HandleGet handles GET /opportunities/{opportunityID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	opportunityID, err := id.ParseOpportunityID(chi.URLParam(r, "opportunityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	opportunity, err := h.service.Get(r.Context(), opportunityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOpportunity(opportunity))
}

// HandleApply handles POST /opportunities/{opportunityID}/apply.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	opportunityID, err := id.ParseOpportunityID(chi.URLParam(r, "opportunityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ApplyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Apply(ctx, opportunityID, req.Payload())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply to opportunity",
			"request_id", requestID,
			"opportunity_id", opportunityID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromApplication(app))
}

// HandleMyApplications handles GET /opportunities/my/applications.
func (h *Handler) HandleMyApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.MyApplications(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplications(apps))
}

// HandleComplete handles POST /opportunities/applications/{applicationID}/complete.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CompleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.MarkCompleted(ctx, applicationID, req.ActivityHours)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to complete application",
			"request_id", requestID,
			"application_id", applicationID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleWithdraw handles DELETE /opportunities/applications/{applicationID}.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Withdraw(r.Context(), applicationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPending handles GET /opportunities/applications/pending-approvals.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListPendingApprovals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplications(apps))
}

// HandleDecide handles
// POST /opportunities/applications/{applicationID}/certificate/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	applicationID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Decide(ctx, applicationID, req.ParsedDecision(), req.Note)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to decide application",
			"request_id", requestID,
			"application_id", applicationID.String(),
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}
