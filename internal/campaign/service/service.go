package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"givehub/internal/campaign/models"
	certmodels "givehub/internal/certificate/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for campaigns and volunteer registrations.
type Store interface {
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	FindCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context) ([]*models.Campaign, error)
	ListFlagged(ctx context.Context) ([]*models.Campaign, error)
	UpsertRegistration(ctx context.Context, reg *models.Registration, now time.Time) (*models.Registration, bool, error)
	FindRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID) (*models.Registration, error)
	ListPendingRegistrations(ctx context.Context, organizationID id.OrganizationID) ([]*models.Registration, error)
	DecideRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID, outcome id.ApprovalStatus, note string, hoursOverride *int, now time.Time) (*models.Registration, error)
}

// Issuer is the certificate issuer port.
type Issuer interface {
	Issue(ctx context.Context, req certmodels.IssueRequest) (*certmodels.Certificate, bool, error)
	Revoke(ctx context.Context, certID id.CertificateID) (*certmodels.Certificate, error)
}

// Directory resolves organization display names for certificate metadata.
type Directory interface {
	OrganizationName(ctx context.Context, orgID id.OrganizationID) (string, error)
}

// CreateCampaignRequest carries the validated campaign fields.
type CreateCampaignRequest struct {
	Title          string
	Description    string
	GoalAmount     int64
	AcceptsFunding bool
}

// MyRegistrationResult is the contributor's view of their roster entry.
type MyRegistrationResult struct {
	Joined       bool
	Registration *models.Registration
}

// Service manages campaigns and their volunteer rosters.
type Service struct {
	store     Store
	issuer    Issuer
	directory Directory
	logger    *slog.Logger
	tracer    trace.Tracer
}

func New(store Store, issuer Issuer, directory Directory, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		issuer:    issuer,
		directory: directory,
		logger:    logger,
		tracer:    otel.Tracer("givehub/campaign"),
	}
}

// CreateCampaign registers a campaign owned by the authenticated organization.
func (s *Service) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*models.Campaign, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	c := &models.Campaign{
		ID:             id.CampaignID(uuid.New()),
		OrganizationID: id.OrganizationID(actorID),
		Title:          req.Title,
		Description:    req.Description,
		GoalAmount:     req.GoalAmount,
		AcceptsFunding: req.AcceptsFunding,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}

	s.logger.InfoContext(ctx, "campaign created",
		"campaign_id", c.ID.String(),
		"organization_id", c.OrganizationID.String(),
	)
	return c, nil
}

// Get returns one campaign.
func (s *Service) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	c, err := s.store.FindCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return c, nil
}

// List returns all campaigns, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.store.ListCampaigns(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list campaigns")
	}
	return campaigns, nil
}

// ListFlagged returns campaigns currently under a moderation flag.
func (s *Service) ListFlagged(ctx context.Context) ([]*models.Campaign, error) {
	campaigns, err := s.store.ListFlagged(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flagged campaigns")
	}
	return campaigns, nil
}

// Register adds the actor to the campaign roster, or refreshes their payload
// when they register again. The roster is a set, so repeated registrations
// never inflate the volunteer count.
func (s *Service) Register(ctx context.Context, campaignID id.CampaignID, payload models.RegistrationInfo) (*models.Registration, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		CampaignID:     campaignID,
		ActorID:        actorID,
		OrganizationID: campaign.OrganizationID,
		Payload:        payload,
	}
	stored, created, err := s.store.UpsertRegistration(ctx, reg, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register volunteer")
	}

	s.logger.InfoContext(ctx, "campaign volunteer registered",
		"campaign_id", campaignID.String(),
		"actor_id", actorID.String(),
		"created", created,
	)
	return stored, nil
}

// MyRegistration reports whether the actor has joined and returns the entry.
func (s *Service) MyRegistration(ctx context.Context, campaignID id.CampaignID) (*MyRegistrationResult, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	reg, err := s.store.FindRegistration(ctx, campaignID, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &MyRegistrationResult{Joined: false}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return &MyRegistrationResult{Joined: true, Registration: reg}, nil
}

// ListPendingApprovals returns undecided registrations across the calling
// organization's campaigns, oldest first.
func (s *Service) ListPendingApprovals(ctx context.Context) ([]*models.Registration, error) {
	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	regs, err := s.store.ListPendingRegistrations(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending registrations")
	}
	return regs, nil
}

// Decide records the organization's verdict on a volunteer registration.
// Approval issues the campaign-volunteer certificate before the status flip;
// if the flip then loses a race, a certificate created by this call is
// revoked so the loser leaves no trace.
func (s *Service) Decide(ctx context.Context, campaignID id.CampaignID, volunteerID id.ActorID, decision id.Decision, note string, hoursOverride *int) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "campaign.Decide",
		trace.WithAttributes(
			attribute.String("campaign_id", campaignID.String()),
			attribute.String("decision", string(decision)),
		))
	defer span.End()

	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if hoursOverride != nil && *hoursOverride <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "activity_hours must be positive")
	}

	reg, err := s.store.FindRegistration(ctx, campaignID, volunteerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	if reg.OrganizationID != orgID {
		return nil, dErrors.New(dErrors.CodeForbidden, "registration belongs to another organization")
	}
	if reg.ApprovalStatus.Terminal() {
		return nil, dErrors.New(dErrors.CodeAlreadyResolved, "registration has already been decided")
	}

	var certCreated *certmodels.Certificate
	if decision == id.DecisionApprove {
		cert, created, err := s.issueCertificate(ctx, reg, hoursOverride)
		if err != nil {
			return nil, err
		}
		if created {
			certCreated = cert
		}
	}

	decided, err := s.store.DecideRegistration(ctx, campaignID, volunteerID, decision.Outcome(), note, hoursOverride, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			s.compensateIssue(ctx, campaignID, volunteerID, certCreated)
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "registration has already been decided")
		case errors.Is(err, sentinel.ErrNotFound):
			s.compensateIssue(ctx, campaignID, volunteerID, certCreated)
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide registration")
		}
	}

	s.logger.InfoContext(ctx, "campaign registration decided",
		"campaign_id", campaignID.String(),
		"actor_id", volunteerID.String(),
		"outcome", string(decided.ApprovalStatus),
	)
	return decided, nil
}

func (s *Service) issueCertificate(ctx context.Context, reg *models.Registration, hoursOverride *int) (*certmodels.Certificate, bool, error) {
	campaign, err := s.store.FindCampaign(ctx, reg.CampaignID)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign for certificate")
	}
	orgName, err := s.directory.OrganizationName(ctx, reg.OrganizationID)
	if err != nil {
		s.logger.WarnContext(ctx, "organization name unavailable for certificate",
			"organization_id", reg.OrganizationID.String(), "error", err)
	}

	hours := reg.ActivityHours
	if hoursOverride != nil {
		hours = *hoursOverride
	}
	cert, created, err := s.issuer.Issue(ctx, certmodels.IssueRequest{
		ActorID:        reg.ActorID,
		OrganizationID: reg.OrganizationID,
		SourceChannel:  certmodels.ChannelCampaignVolunteer,
		SourceRecordID: reg.SourceRecordID(),
		Metadata: certmodels.Metadata{
			OrganizationName: orgName,
			CampaignTitle:    campaign.Title,
			ActivityHours:    hours,
		},
	})
	if err != nil {
		return nil, false, err
	}
	return cert, created, nil
}

// compensateIssue revokes a certificate this call created when the decision
// race was lost. The certificate stays when the winning decision was itself
// an approval, since the winner's issue call absorbed it idempotently.
func (s *Service) compensateIssue(ctx context.Context, campaignID id.CampaignID, volunteerID id.ActorID, cert *certmodels.Certificate) {
	if cert == nil {
		return
	}
	reg, err := s.store.FindRegistration(ctx, campaignID, volunteerID)
	if err == nil && reg.ApprovalStatus == id.ApprovalApproved {
		return
	}
	if _, err := s.issuer.Revoke(ctx, cert.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke certificate after lost decision race",
			"certificate_id", cert.ID.String(), "error", err)
	}
}
