package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"givehub/internal/moderation/models"
	"givehub/internal/platform/events"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for flag requests.
type Store interface {
	Submit(ctx context.Context, req *models.FlagRequest) (*models.FlagRequest, error)
	FindByID(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.FlagRequest, error)
	Resolve(ctx context.Context, requestID id.FlagRequestID, outcome models.RequestStatus, adminID id.ActorID, now time.Time) (*models.FlagRequest, error)
}

// Target is the moderation view of an NGO or campaign.
type Target struct {
	ID      string
	Name    string
	Flagged bool
}

// TargetDirectory resolves and flags moderation targets. The organization and
// campaign stores implement it through adapters wired at startup.
type TargetDirectory interface {
	Find(ctx context.Context, targetType models.TargetType, targetID string) (*Target, error)
	SetFlagged(ctx context.Context, targetType models.TargetType, targetID string, flagged bool, reason string) error
}

// Service is the moderation queue.
type Service struct {
	store     Store
	targets   TargetDirectory
	logger    *slog.Logger
	publisher *events.Publisher
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithPublisher(p *events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func New(store Store, targets TargetDirectory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		targets: targets,
		logger:  logger,
		tracer:  otel.Tracer("givehub/moderation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a flag request against an existing, not-yet-flagged target.
// The store enforces one pending request per (target, requester).
func (s *Service) Submit(ctx context.Context, targetType models.TargetType, targetID, reason string) (*models.FlagRequest, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(reason) > 1000 {
		return nil, dErrors.New(dErrors.CodeValidation, "reason must be at most 1000 characters")
	}

	target, err := s.targets.Find(ctx, targetType, targetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "flag target not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve flag target")
	}
	if target.Flagged {
		return nil, dErrors.New(dErrors.CodeDuplicateRequest, "target is already flagged")
	}

	req := &models.FlagRequest{
		ID:          id.FlagRequestID(uuid.New()),
		TargetType:  targetType,
		TargetID:    targetID,
		TargetName:  target.Name,
		Reason:      reason,
		Status:      models.RequestPending,
		RequestedBy: actorID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	stored, err := s.store.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateRequest, "you already have a pending flag request for this target")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit flag request")
	}

	s.logger.InfoContext(ctx, "flag request submitted",
		"flag_request_id", stored.ID.String(),
		"target_type", string(targetType),
		"target_id", targetID,
	)
	return stored, nil
}

// List returns the admin moderation queue, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) ([]*models.FlagRequest, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flag requests")
	}
	return out, nil
}

// Approve resolves the request and flags its target with the stored reason.
// The status flip is the race arbiter; only the winner touches the target.
func (s *Service) Approve(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error) {
	ctx, span := s.tracer.Start(ctx, "moderation.Approve",
		trace.WithAttributes(attribute.String("flag_request_id", requestID.String())))
	defer span.End()

	resolved, err := s.resolve(ctx, requestID, models.RequestApproved)
	if err != nil {
		return nil, err
	}

	if err := s.targets.SetFlagged(ctx, resolved.TargetType, resolved.TargetID, true, resolved.Reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to flag target after approval",
			"flag_request_id", resolved.ID.String(),
			"target_type", string(resolved.TargetType),
			"target_id", resolved.TargetID,
			"error", err,
		)
	}
	s.publisher.Emit(ctx, events.TypeFlagRequestApproved, resolved)
	s.logger.InfoContext(ctx, "flag request approved",
		"flag_request_id", resolved.ID.String(),
		"target_type", string(resolved.TargetType),
		"target_id", resolved.TargetID,
	)
	return resolved, nil
}

// Reject resolves the request without touching the target.
func (s *Service) Reject(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error) {
	return s.resolve(ctx, requestID, models.RequestRejected)
}

func (s *Service) resolve(ctx context.Context, requestID id.FlagRequestID, outcome models.RequestStatus) (*models.FlagRequest, error) {
	adminID := requestcontext.ActorID(ctx)
	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	resolved, err := s.store.Resolve(ctx, requestID, outcome, adminID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "flag request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "flag request has already been resolved")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve flag request")
		}
	}
	return resolved, nil
}

// ClearFlag removes a moderation flag from a target directly.
func (s *Service) ClearFlag(ctx context.Context, targetType models.TargetType, targetID string) error {
	if err := s.targets.SetFlagged(ctx, targetType, targetID, false, ""); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "flag target not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear flag")
	}
	s.logger.InfoContext(ctx, "flag cleared",
		"target_type", string(targetType),
		"target_id", targetID,
	)
	return nil
}
