package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/campaign/models"
	"givehub/internal/campaign/service"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the campaign operations the handler exposes.
type Service interface {
	CreateCampaign(ctx context.Context, req service.CreateCampaignRequest) (*models.Campaign, error)
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	ListFlagged(ctx context.Context) ([]*models.Campaign, error)
	Register(ctx context.Context, campaignID id.CampaignID, payload models.RegistrationInfo) (*models.Registration, error)
	MyRegistration(ctx context.Context, campaignID id.CampaignID) (*service.MyRegistrationResult, error)
	ListPendingApprovals(ctx context.Context) ([]*models.Registration, error)
	Decide(ctx context.Context, campaignID id.CampaignID, volunteerID id.ActorID, decision id.Decision, note string, hoursOverride *int) (*models.Registration, error)
}

// Handler wires campaign endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public campaign endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/campaigns", h.HandleList)
	r.Get("/campaigns/{campaignID}", h.HandleGet)
}

// RegisterContributor mounts endpoints for authenticated contributors.
func (h *Handler) RegisterContributor(r chi.Router) {
	r.Post("/campaigns/{campaignID}/volunteer", h.HandleRegisterVolunteer)
	r.Get("/campaigns/{campaignID}/volunteer/my-registration", h.HandleMyRegistration)
}

// RegisterOrganization mounts endpoints for organization accounts.
func (h *Handler) RegisterOrganization(r chi.Router) {
	r.Post("/campaigns", h.HandleCreate)
	r.Get("/campaigns/volunteer/pending-approvals", h.HandleListPending)
	r.Post("/campaigns/{campaignID}/volunteer/decision", h.HandleDecide)
}

// RegisterAdmin mounts the admin moderation view.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/campaigns/flagged", h.HandleListFlagged)
}

// HandleListFlagged handles GET /admin/campaigns/flagged.
func (h *Handler) HandleListFlagged(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListFlagged(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCampaigns(campaigns))
}

// HandleCreate handles POST /campaigns.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCampaignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	campaign, err := h.service.CreateCampaign(ctx, service.CreateCampaignRequest{
		Title:          req.Title,
		Description:    req.Description,
		GoalAmount:     req.GoalAmount,
		AcceptsFunding: req.AcceptsFunding,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create campaign",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCampaign(campaign))
}

// HandleList handles GET /campaigns.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCampaigns(campaigns))
}

// HandleGet handles GET /campaigns/{campaignID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	campaign, err := h.service.Get(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCampaign(campaign))
}

// HandleRegisterVolunteer handles POST /campaigns/{campaignID}/volunteer.
func (h *Handler) HandleRegisterVolunteer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.Register(ctx, campaignID, req.Payload())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register campaign volunteer",
			"request_id", requestID,
			"campaign_id", campaignID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleMyRegistration handles
// GET /campaigns/{campaignID}/volunteer/my-registration.
func (h *Handler) HandleMyRegistration(w http.ResponseWriter, r *http.Request) {
	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.MyRegistration(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := MyRegistrationResponse{Joined: result.Joined}
	if result.Registration != nil {
		reg := FromRegistration(result.Registration)
		resp.Registration = &reg
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleListPending handles GET /campaigns/volunteer/pending-approvals.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.ListPendingApprovals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistrations(regs))
}

// HandleDecide handles POST /campaigns/{campaignID}/volunteer/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.Decide(ctx, campaignID, req.ParsedVolunteerID(), req.ParsedDecision(), req.Note, req.ActivityHours)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to decide campaign registration",
			"request_id", requestID,
			"campaign_id", campaignID.String(),
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}
