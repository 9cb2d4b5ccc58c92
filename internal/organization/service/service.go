package service

import (
	"context"
	"errors"
	"log/slog"

	"givehub/internal/organization/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

// Store is the persistence port for organization profiles.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	SetFlagged(ctx context.Context, orgID id.OrganizationID, flagged bool, reason string) (*models.Organization, error)
	ListFlagged(ctx context.Context) ([]*models.Organization, error)
}

// CreateRequest carries the validated profile fields.
type CreateRequest struct {
	Name     string
	Category models.Category
	Location string
	Mission  string
}

// Service manages the NGO directory.
type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateProfile registers the profile for the authenticated organization
// account. The profile id is the account's actor id, so each account owns at
// most one profile.
func (s *Service) CreateProfile(ctx context.Context, req CreateRequest) (*models.Organization, error) {
	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "actor identity required")
	}

	org := &models.Organization{
		ID:        id.OrganizationID(actorID),
		Name:      req.Name,
		Category:  req.Category,
		Location:  req.Location,
		Mission:   req.Mission,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "organization profile already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization profile")
	}

	s.logger.InfoContext(ctx, "organization profile created",
		"organization_id", org.ID.String(),
		"category", string(org.Category),
	)
	return org, nil
}

// Get returns one profile from the directory.
func (s *Service) Get(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	org, err := s.store.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	return org, nil
}

// List returns the full directory, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Organization, error) {
	orgs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// ListFlagged returns profiles currently under a moderation flag.
func (s *Service) ListFlagged(ctx context.Context) ([]*models.Organization, error) {
	orgs, err := s.store.ListFlagged(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flagged organizations")
	}
	return orgs, nil
}

// SetFlagged flips the moderation flag. The moderation queue calls this when
// a flag request is approved; admins call it directly to clear a flag.
func (s *Service) SetFlagged(ctx context.Context, orgID id.OrganizationID, flagged bool, reason string) (*models.Organization, error) {
	org, err := s.store.SetFlagged(ctx, orgID, flagged, reason)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update organization flag")
	}
	return org, nil
}
