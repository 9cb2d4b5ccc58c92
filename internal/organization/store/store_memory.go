package store

import (
	"context"
	"sort"
	"sync"

	"givehub/internal/organization/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// Memory is the in-memory organization store (dev and tests).
type Memory struct {
	mu            sync.Mutex
	organizations map[id.OrganizationID]*models.Organization
}

func NewMemory() *Memory {
	return &Memory{organizations: make(map[id.OrganizationID]*models.Organization)}
}

// Create inserts the profile; one profile per organization account.
func (s *Memory) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.organizations[org.ID]; ok {
		return sentinel.ErrConflict
	}
	s.organizations[org.ID] = copyOrganization(org)
	return nil
}

func (s *Memory) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.organizations[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOrganization(org), nil
}

// List returns all profiles, newest first.
func (s *Memory) List(ctx context.Context) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Organization, 0, len(s.organizations))
	for _, org := range s.organizations {
		out = append(out, copyOrganization(org))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// SetFlagged updates the moderation flag. An empty reason clears it.
func (s *Memory) SetFlagged(ctx context.Context, orgID id.OrganizationID, flagged bool, reason string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.organizations[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	org.Flagged = flagged
	org.FlagReason = reason
	return copyOrganization(org), nil
}

// ListFlagged returns currently flagged profiles, newest first.
func (s *Memory) ListFlagged(ctx context.Context) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Organization
	for _, org := range s.organizations {
		if org.Flagged {
			out = append(out, copyOrganization(org))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func copyOrganization(o *models.Organization) *models.Organization {
	dup := *o
	return &dup
}
