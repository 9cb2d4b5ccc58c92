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

	certmodels "givehub/internal/certificate/models"
	"givehub/internal/opportunity/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for opportunities and applications.
type Store interface {
	CreateOpportunity(ctx context.Context, o *models.Opportunity) error
	FindOpportunity(ctx context.Context, opportunityID id.OpportunityID) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context) ([]*models.Opportunity, error)
	CreateApplication(ctx context.Context, app *models.Application) (*models.Application, error)
	FindApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	FindApplicationForActor(ctx context.Context, opportunityID id.OpportunityID, actorID id.ActorID) (*models.Application, error)
	ListApplicationsForActor(ctx context.Context, actorID id.ActorID) ([]*models.Application, error)
	MarkCompleted(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID, hours int, now time.Time) (*models.Application, error)
	ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Application, error)
	Decide(ctx context.Context, applicationID id.ApplicationID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Application, error)
	Withdraw(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID) error
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

// CreateOpportunityRequest carries the validated opportunity fields.
type CreateOpportunityRequest struct {
	Title       string
	Description string
	Location    string
	Spots       int
}

// Service is the opportunity application tracker.
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
		tracer:    otel.Tracer("givehub/opportunity"),
	}
}

// CreateOpportunity posts a position owned by the authenticated organization.
func (s *Service) CreateOpportunity(ctx context.Context, req CreateOpportunityRequest) (*models.Opportunity, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if req.Spots <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "spots must be positive")
	}

	o := &models.Opportunity{
		ID:             id.OpportunityID(uuid.New()),
		OrganizationID: id.OrganizationID(actorID),
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Spots:          req.Spots,
		SpotsRemaining: req.Spots,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.CreateOpportunity(ctx, o); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create opportunity")
	}

	s.logger.InfoContext(ctx, "opportunity created",
		"opportunity_id", o.ID.String(),
		"organization_id", o.OrganizationID.String(),
		"spots", o.Spots,
	)
	return o, nil
}

// Get returns one opportunity.
func (s *Service) Get(ctx context.Context, opportunityID id.OpportunityID) (*models.Opportunity, error) {
	o, err := s.store.FindOpportunity(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "opportunity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load opportunity")
	}
	return o, nil
}

// List returns all opportunities, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Opportunity, error) {
	opportunities, err := s.store.ListOpportunities(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list opportunities")
	}
	return opportunities, nil
}

// Apply files the actor's application. One application per actor per
// opportunity; a second attempt is a duplicate, not an update.
func (s *Service) Apply(ctx context.Context, opportunityID id.OpportunityID, payload models.ApplicantInfo) (*models.Application, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	opportunity, err := s.Get(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	app := &models.Application{
		ID:             id.ApplicationID(uuid.New()),
		ActorID:        actorID,
		OpportunityID:  opportunityID,
		OrganizationID: opportunity.OrganizationID,
		Payload:        payload,
		Status:         models.ApplicationApplied,
		ApprovalStatus: id.ApprovalNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored, err := s.store.CreateApplication(ctx, app)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeDuplicateRequest, "you have already applied to this opportunity")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "opportunity not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
		}
	}

	s.logger.InfoContext(ctx, "opportunity application filed",
		"application_id", stored.ID.String(),
		"opportunity_id", opportunityID.String(),
	)
	return stored, nil
}

// MarkCompleted records the volunteer's self-reported completion and hours,
// arming the organization's approval queue.
func (s *Service) MarkCompleted(ctx context.Context, applicationID id.ApplicationID, hours int) (*models.Application, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	if hours <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "activity_hours must be positive")
	}

	app, err := s.store.MarkCompleted(ctx, applicationID, actorID, hours, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "application is already completed")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete application")
		}
	}
	return app, nil
}

// MyApplications returns the actor's applications, newest first.
func (s *Service) MyApplications(ctx context.Context) ([]*models.Application, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	apps, err := s.store.ListApplicationsForActor(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// ListPendingApprovals returns the calling organization's approval queue,
// oldest first.
func (s *Service) ListPendingApprovals(ctx context.Context) ([]*models.Application, error) {
	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	apps, err := s.store.ListPendingApprovals(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending approvals")
	}
	return apps, nil
}

// Decide records the organization's verdict on a completed application.
// Approval issues the opportunity certificate before the status flip; a
// certificate created by a call that then loses the race is revoked unless
// the winner also approved.
func (s *Service) Decide(ctx context.Context, applicationID id.ApplicationID, decision id.Decision, note string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "opportunity.Decide",
		trace.WithAttributes(
			attribute.String("application_id", applicationID.String()),
			attribute.String("decision", string(decision)),
		))
	defer span.End()

	orgID := id.OrganizationID(requestcontext.ActorID(ctx))
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	app, err := s.store.FindApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if app.OrganizationID != orgID {
		return nil, dErrors.New(dErrors.CodeForbidden, "application belongs to another organization")
	}
	if app.Status != models.ApplicationCompleted {
		return nil, dErrors.New(dErrors.CodeValidation, "application is not completed")
	}
	if app.ApprovalStatus.Terminal() {
		return nil, dErrors.New(dErrors.CodeAlreadyResolved, "application has already been decided")
	}

	var certCreated *certmodels.Certificate
	if decision == id.DecisionApprove {
		cert, created, err := s.issueCertificate(ctx, app)
		if err != nil {
			return nil, err
		}
		if created {
			certCreated = cert
		}
	}

	decided, err := s.store.Decide(ctx, applicationID, decision.Outcome(), note, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			s.compensateIssue(ctx, applicationID, certCreated)
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "application has already been decided")
		case errors.Is(err, sentinel.ErrNotFound):
			s.compensateIssue(ctx, applicationID, certCreated)
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide application")
		}
	}

	s.logger.InfoContext(ctx, "application decided",
		"application_id", decided.ID.String(),
		"outcome", string(decided.ApprovalStatus),
	)
	return decided, nil
}

// Withdraw removes the actor's application while no decision has been
// recorded, releasing its spot.
func (s *Service) Withdraw(ctx context.Context, applicationID id.ApplicationID) error {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	if err := s.store.Withdraw(ctx, applicationID, actorID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeAlreadyResolved, "application has already been decided")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw application")
		}
	}

	s.logger.InfoContext(ctx, "application withdrawn", "application_id", applicationID.String())
	return nil
}

func (s *Service) issueCertificate(ctx context.Context, app *models.Application) (*certmodels.Certificate, bool, error) {
	orgName, err := s.directory.OrganizationName(ctx, app.OrganizationID)
	if err != nil {
		s.logger.WarnContext(ctx, "organization name unavailable for certificate",
			"organization_id", app.OrganizationID.String(), "error", err)
	}
	var title string
	if opportunity, err := s.store.FindOpportunity(ctx, app.OpportunityID); err == nil {
		title = opportunity.Title
	}

	cert, created, err := s.issuer.Issue(ctx, certmodels.IssueRequest{
		ActorID:        app.ActorID,
		OrganizationID: app.OrganizationID,
		SourceChannel:  certmodels.ChannelOpportunity,
		SourceRecordID: app.ID.String(),
		Metadata: certmodels.Metadata{
			OrganizationName: orgName,
			OpportunityTitle: title,
			ActivityHours:    app.ActivityHours,
		},
	})
	if err != nil {
		return nil, false, err
	}
	return cert, created, nil
}

func (s *Service) compensateIssue(ctx context.Context, applicationID id.ApplicationID, cert *certmodels.Certificate) {
	if cert == nil {
		return
	}
	app, err := s.store.FindApplication(ctx, applicationID)
	if err == nil && app.ApprovalStatus == id.ApprovalApproved {
		return
	}
	if _, err := s.issuer.Revoke(ctx, cert.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke certificate after lost decision race",
			"certificate_id", cert.ID.String(), "error", err)
	}
}
