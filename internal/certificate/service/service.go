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

	certmetrics "givehub/internal/certificate/metrics"
	"givehub/internal/certificate/models"
	"givehub/internal/platform/events"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for certificates.
type Store interface {
	Issue(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error)
	ListActiveForActor(ctx context.Context, actorID id.ActorID) ([]*models.Certificate, error)
	FindActiveForActor(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error)
	MarkDelivered(ctx context.Context, certID id.CertificateID, actorID id.ActorID, now time.Time) (*models.Certificate, error)
	Revoke(ctx context.Context, certID id.CertificateID) (*models.Certificate, error)
}

// Service is the certificate issuer shared by the three contribution
// trackers.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *certmetrics.Metrics
	publisher *events.Publisher
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *certmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("givehub/certificate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates the certificate for an approved contribution, or returns the
// existing active one unchanged when a duplicate decision call races in.
// The returned bool reports whether this call created the certificate.
func (s *Service) Issue(ctx context.Context, req models.IssueRequest) (*models.Certificate, bool, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Issue",
		trace.WithAttributes(
			attribute.String("source_channel", string(req.SourceChannel)),
			attribute.String("source_record_id", req.SourceRecordID),
		))
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	cert := &models.Certificate{
		ID:             id.CertificateID(uuid.New()),
		ActorID:        req.ActorID,
		OrganizationID: req.OrganizationID,
		SourceChannel:  req.SourceChannel,
		SourceRecordID: req.SourceRecordID,
		Status:         models.StatusActive,
		Metadata:       req.Metadata,
		IssuedAt:       requestcontext.Now(ctx),
	}

	stored, created, err := s.store.Issue(ctx, cert)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue certificate")
	}

	if created {
		s.metrics.IncIssued(string(stored.SourceChannel))
		s.publisher.Emit(ctx, events.TypeCertificateIssued, stored)
		s.logger.InfoContext(ctx, "certificate issued",
			"certificate_id", stored.ID.String(),
			"actor_id", stored.ActorID.String(),
			"channel", string(stored.SourceChannel),
		)
	} else {
		s.metrics.IncReissued()
	}
	return stored, created, nil
}

// ListForActor returns the actor's active certificates, most recent first.
func (s *Service) ListForActor(ctx context.Context, actorID id.ActorID) ([]*models.Certificate, error) {
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	certs, err := s.store.ListActiveForActor(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return certs, nil
}

// Get returns one active certificate owned by the actor. This is the data
// contract the external templating collaborator renders.
func (s *Service) Get(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error) {
	cert, err := s.store.FindActiveForActor(ctx, certID, actorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return cert, nil
}

// DownloadData stamps DeliveredAt and returns the certificate data for
// rendering.
func (s *Service) DownloadData(ctx context.Context, certID id.CertificateID, actorID id.ActorID) (*models.Certificate, error) {
	cert, err := s.store.MarkDelivered(ctx, certID, actorID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark certificate delivered")
	}
	s.metrics.IncDelivered()
	return cert, nil
}

// Revoke is the admin-only active→revoked transition. Revoking frees the
// (channel, source record) slot for a future re-issue.
func (s *Service) Revoke(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	cert, err := s.store.Revoke(ctx, certID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "certificate is already revoked")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke certificate")
		}
	}
	s.metrics.IncRevoked()
	s.logger.InfoContext(ctx, "certificate revoked", "certificate_id", cert.ID.String())
	return cert, nil
}
