package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	campaignmodels "givehub/internal/campaign/models"
	certmodels "givehub/internal/certificate/models"
	"givehub/internal/contribution/metrics"
	"givehub/internal/contribution/models"
	"givehub/internal/platform/events"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for contributions.
type Store interface {
	Create(ctx context.Context, c *models.Contribution) error
	FindByID(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error)
	Confirm(ctx context.Context, contributionID id.ContributionID, orderRef, paymentRef string, now time.Time) (*models.Contribution, bool, error)
	MarkFailed(ctx context.Context, contributionID id.ContributionID, now time.Time) (*models.Contribution, error)
	ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Contribution, error)
	Decide(ctx context.Context, contributionID id.ContributionID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Contribution, error)
}

// Campaigns is the campaign registry port: funding checks and the raised
// counter.
type Campaigns interface {
	FindCampaign(ctx context.Context, campaignID id.CampaignID) (*campaignmodels.Campaign, error)
	AddRaised(ctx context.Context, campaignID id.CampaignID, amount int64) error
}

// Issuer is the certificate issuer port.
type Issuer interface {
	Issue(ctx context.Context, req certmodels.IssueRequest) (*certmodels.Certificate, bool, error)
	Revoke(ctx context.Context, certID id.CertificateID) (*certmodels.Certificate, error)
}

// Directory resolves organization display names for receipts and
// certificate metadata.
type Directory interface {
	OrganizationName(ctx context.Context, orgID id.OrganizationID) (string, error)
}

// InitiateRequest carries the validated contribution fields.
type InitiateRequest struct {
	Amount        int64
	PaymentMethod models.PaymentMethod
	DonorInfo     models.DonorInfo
}

// Service is the contribution ledger.
type Service struct {
	store     Store
	campaigns Campaigns
	issuer    Issuer
	directory Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher *events.Publisher
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func New(store Store, campaigns Campaigns, issuer Issuer, directory Directory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		campaigns: campaigns,
		issuer:    issuer,
		directory: directory,
		logger:    logger,
		tracer:    otel.Tracer("givehub/contribution"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initiate opens a pending contribution and returns it with a fresh gateway
// order reference for the client-side payment flow.
func (s *Service) Initiate(ctx context.Context, campaignID id.CampaignID, req InitiateRequest) (*models.Contribution, error) {
	contributorID := requestcontext.ActorID(ctx)
	if contributorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	campaign, err := s.campaigns.FindCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	if !campaign.AcceptsFunding {
		return nil, dErrors.New(dErrors.CodeValidation, "campaign does not accept funding")
	}

	now := requestcontext.Now(ctx)
	c := &models.Contribution{
		ID:              id.ContributionID(uuid.New()),
		ContributorID:   contributorID,
		OrganizationID:  campaign.OrganizationID,
		CampaignID:      campaignID,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		DonorInfo:       req.DonorInfo,
		GatewayOrderRef: newOrderRef(),
		Status:          models.StatusPending,
		ApprovalStatus:  id.ApprovalNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contribution")
	}

	s.metrics.IncInitiated()
	s.logger.InfoContext(ctx, "contribution initiated",
		"contribution_id", c.ID.String(),
		"campaign_id", campaignID.String(),
		"amount", c.Amount,
	)
	return c, nil
}

// Confirm settles the gateway callback. The transition is a single
// conditional write in the store, so replayed callbacks and double-clicks
// collapse onto one completion; only the applying call moves the campaign
// raised counter and emits the confirmation event.
func (s *Service) Confirm(ctx context.Context, contributionID id.ContributionID, orderRef, paymentRef string) (*models.Contribution, error) {
	ctx, span := s.tracer.Start(ctx, "contribution.Confirm",
		trace.WithAttributes(attribute.String("contribution_id", contributionID.String())))
	defer span.End()

	if orderRef == "" || paymentRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "order and payment references are required")
	}

	c, applied, err := s.store.Confirm(ctx, contributionID, orderRef, paymentRef, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "contribution not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeValidation, "order reference does not match this contribution")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "contribution has already failed")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm contribution")
		}
	}

	s.metrics.ObserveConfirm(applied, c.Amount)
	if applied {
		if err := s.campaigns.AddRaised(ctx, c.CampaignID, c.Amount); err != nil {
			s.logger.ErrorContext(ctx, "failed to add confirmed amount to campaign",
				"contribution_id", c.ID.String(),
				"campaign_id", c.CampaignID.String(),
				"error", err,
			)
		}
		s.publisher.Emit(ctx, events.TypeContributionConfirmed, c)
		s.logger.InfoContext(ctx, "contribution confirmed",
			"contribution_id", c.ID.String(),
			"receipt_number", c.ReceiptNumber,
		)
	}
	return c, nil
}

// MarkFailed records a gateway failure reported by the client.
func (s *Service) MarkFailed(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error) {
	c, err := s.store.MarkFailed(ctx, contributionID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "contribution not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "contribution is no longer pending")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark contribution failed")
		}
	}
	return c, nil
}

// ListPendingApprovals returns the calling organization's approval queue,
// oldest first.
func (s *Service) ListPendingApprovals(ctx context.Context) ([]*models.Contribution, error) {
	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	out, err := s.store.ListPendingApprovals(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending approvals")
	}
	return out, nil
}

// Decide records the organization's certificate verdict. Approval issues the
// donation certificate before the status flip; a certificate created by a
// call that then loses the race is revoked unless the winner also approved.
func (s *Service) Decide(ctx context.Context, contributionID id.ContributionID, decision id.Decision, note string) (*models.Contribution, error) {
	ctx, span := s.tracer.Start(ctx, "contribution.Decide",
		trace.WithAttributes(
			attribute.String("contribution_id", contributionID.String()),
			attribute.String("decision", string(decision)),
		))
	defer span.End()

	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	c, err := s.store.FindByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contribution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contribution")
	}
	if c.OrganizationID != orgID {
		return nil, dErrors.New(dErrors.CodeForbidden, "contribution belongs to another organization")
	}
	if c.Status != models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeValidation, "contribution is not completed")
	}
	if c.ApprovalStatus.Terminal() {
		return nil, dErrors.New(dErrors.CodeAlreadyResolved, "contribution has already been decided")
	}

	var certCreated *certmodels.Certificate
	if decision == id.DecisionApprove {
		cert, created, err := s.issueCertificate(ctx, c)
		if err != nil {
			return nil, err
		}
		if created {
			certCreated = cert
		}
	}

	decided, err := s.store.Decide(ctx, contributionID, decision.Outcome(), note, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			s.compensateIssue(ctx, contributionID, certCreated)
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "contribution has already been decided")
		case errors.Is(err, sentinel.ErrNotFound):
			s.compensateIssue(ctx, contributionID, certCreated)
			return nil, dErrors.New(dErrors.CodeNotFound, "contribution not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide contribution")
		}
	}

	s.metrics.IncDecision(string(decided.ApprovalStatus))
	s.logger.InfoContext(ctx, "contribution decided",
		"contribution_id", decided.ID.String(),
		"outcome", string(decided.ApprovalStatus),
	)
	return decided, nil
}

// GetReceipt returns the receipt projection for a completed contribution.
// Only the contributing actor may read it.
func (s *Service) GetReceipt(ctx context.Context, contributionID id.ContributionID) (*models.Receipt, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	c, err := s.store.FindByID(ctx, contributionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contribution not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contribution")
	}
	if c.ContributorID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "receipt belongs to another contributor")
	}
	if c.Status != models.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeValidation, "contribution is not completed")
	}

	receipt := &models.Receipt{
		ReceiptNumber:  c.ReceiptNumber,
		ContributionID: c.ID.String(),
		Amount:         c.Amount,
		PaymentMethod:  string(c.PaymentMethod),
		DonorName:      c.DonorInfo.Name,
		PaidAt:         c.UpdatedAt,
	}
	if name, err := s.directory.OrganizationName(ctx, c.OrganizationID); err == nil {
		receipt.OrganizationName = name
	}
	if campaign, err := s.campaigns.FindCampaign(ctx, c.CampaignID); err == nil {
		receipt.CampaignTitle = campaign.Title
	}
	return receipt, nil
}

func (s *Service) issueCertificate(ctx context.Context, c *models.Contribution) (*certmodels.Certificate, bool, error) {
	orgName, err := s.directory.OrganizationName(ctx, c.OrganizationID)
	if err != nil {
		s.logger.WarnContext(ctx, "organization name unavailable for certificate",
			"organization_id", c.OrganizationID.String(), "error", err)
	}
	var campaignTitle string
	if campaign, err := s.campaigns.FindCampaign(ctx, c.CampaignID); err == nil {
		campaignTitle = campaign.Title
	}

	cert, created, err := s.issuer.Issue(ctx, certmodels.IssueRequest{
		ActorID:        c.ContributorID,
		OrganizationID: c.OrganizationID,
		SourceChannel:  certmodels.ChannelDonation,
		SourceRecordID: c.ID.String(),
		Metadata: certmodels.Metadata{
			OrganizationName: orgName,
			CampaignTitle:    campaignTitle,
			Amount:           c.Amount,
		},
	})
	if err != nil {
		return nil, false, err
	}
	return cert, created, nil
}

func (s *Service) compensateIssue(ctx context.Context, contributionID id.ContributionID, cert *certmodels.Certificate) {
	if cert == nil {
		return
	}
	c, err := s.store.FindByID(ctx, contributionID)
	if err == nil && c.ApprovalStatus == id.ApprovalApproved {
		return
	}
	if _, err := s.issuer.Revoke(ctx, cert.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke certificate after lost decision race",
			"certificate_id", cert.ID.String(), "error", err)
	}
}

// newOrderRef mints a gateway-style order reference.
func newOrderRef() string {
	u := uuid.New()
	return "order_" + hex.EncodeToString(u[:])
}
