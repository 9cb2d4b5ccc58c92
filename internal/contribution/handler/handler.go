package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"givehub/internal/contribution/models"
	"givehub/internal/contribution/service"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/httputil"
	"givehub/pkg/requestcontext"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	Initiate(ctx context.Context, campaignID id.CampaignID, req service.InitiateRequest) (*models.Contribution, error)
	Confirm(ctx context.Context, contributionID id.ContributionID, orderRef, paymentRef string) (*models.Contribution, error)
	MarkFailed(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error)
	ListPendingApprovals(ctx context.Context) ([]*models.Contribution, error)
	Decide(ctx context.Context, contributionID id.ContributionID, decision id.Decision, note string) (*models.Contribution, error)
	GetReceipt(ctx context.Context, contributionID id.ContributionID) (*models.Receipt, error)
}

// Handler wires contribution endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterContributor mounts endpoints for authenticated contributors.
func (h *Handler) RegisterContributor(r chi.Router) {
	r.Post("/contributions/campaign/{campaignID}/initiate", h.HandleInitiate)
	r.Post("/contributions/{contributionID}/confirm", h.HandleConfirm)
	r.Post("/contributions/{contributionID}/fail", h.HandleMarkFailed)
	r.Get("/contributions/{contributionID}/receipt", h.HandleGetReceipt)
}

// RegisterOrganization mounts endpoints for organization accounts.
func (h *Handler) RegisterOrganization(r chi.Router) {
	r.Get("/contributions/organization/pending-approvals", h.HandleListPending)
	r.Post("/contributions/{contributionID}/certificate/decision", h.HandleDecide)
}

// HandleInitiate handles POST /contributions/campaign/{campaignID}/initiate.
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	campaignID, err := id.ParseCampaignID(chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[InitiateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contribution, err := h.service.Initiate(ctx, campaignID, service.InitiateRequest{
		Amount:        req.Amount,
		PaymentMethod: req.ParsedMethod(),
		DonorInfo:     models.DonorInfo{Name: req.DonorName, Email: req.DonorEmail},
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to initiate contribution",
			"request_id", requestID,
			"campaign_id", campaignID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContribution(contribution))
}

// HandleConfirm handles POST /contributions/{contributionID}/confirm.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contributionID, err := id.ParseContributionID(chi.URLParam(r, "contributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConfirmRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contribution, err := h.service.Confirm(ctx, contributionID, req.OrderRef, req.PaymentRef)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to confirm contribution",
			"request_id", requestID,
			"contribution_id", contributionID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContribution(contribution))
}

// HandleMarkFailed handles POST /contributions/{contributionID}/fail.
func (h *Handler) HandleMarkFailed(w http.ResponseWriter, r *http.Request) {
	contributionID, err := id.ParseContributionID(chi.URLParam(r, "contributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	contribution, err := h.service.MarkFailed(r.Context(), contributionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContribution(contribution))
}

// HandleGetReceipt handles GET /contributions/{contributionID}/receipt.
func (h *Handler) HandleGetReceipt(w http.ResponseWriter, r *http.Request) {
	contributionID, err := id.ParseContributionID(chi.URLParam(r, "contributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.service.GetReceipt(r.Context(), contributionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleListPending handles GET /contributions/organization/pending-approvals.
func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.service.ListPendingApprovals(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContributions(contributions))
}

// HandleDecide handles POST /contributions/{contributionID}/certificate/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contributionID, err := id.ParseContributionID(chi.URLParam(r, "contributionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	contribution, err := h.service.Decide(ctx, contributionID, req.ParsedDecision(), req.Note)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to decide contribution",
			"request_id", requestID,
			"contribution_id", contributionID.String(),
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromContribution(contribution))
}
