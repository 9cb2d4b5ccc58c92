package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"givehub/internal/organization/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func newProfile(name string, createdAt time.Time) *models.Organization {
	return &models.Organization{
		ID:        id.OrganizationID(uuid.New()),
		Name:      name,
		Category:  models.CategoryEducation,
		Location:  "Pune",
		CreatedAt: createdAt,
	}
}

func (s *MemoryStoreSuite) TestCreate() {
	ctx := context.Background()
	org := newProfile("Sunrise Trust", time.Now())

	s.Run("stores a copy", func() {
		s.Require().NoError(s.store.Create(ctx, org))
		org.Name = "mutated"

		found, err := s.store.FindByID(ctx, org.ID)
		s.Require().NoError(err)
		s.Equal("Sunrise Trust", found.Name)
	})

	s.Run("one profile per account", func() {
		err := s.store.Create(ctx, org)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown profile", func() {
		_, err := s.store.FindByID(ctx, id.OrganizationID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestList() {
	ctx := context.Background()
	older := newProfile("Older Org", time.Now().Add(-time.Hour))
	newer := newProfile("Newer Org", time.Now())
	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	orgs, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(orgs, 2)
	s.Equal(newer.ID, orgs[0].ID, "listing is newest first")
	s.Equal(older.ID, orgs[1].ID)
}

func (s *MemoryStoreSuite) TestSetFlagged() {
	ctx := context.Background()
	org := newProfile("Shady Org", time.Now())
	s.Require().NoError(s.store.Create(ctx, org))

	flagged, err := s.store.SetFlagged(ctx, org.ID, true, "spam")
	s.Require().NoError(err)
	s.True(flagged.Flagged)
	s.Equal("spam", flagged.FlagReason)

	listed, err := s.store.ListFlagged(ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(org.ID, listed[0].ID)

	cleared, err := s.store.SetFlagged(ctx, org.ID, false, "")
	s.Require().NoError(err)
	s.False(cleared.Flagged)
	s.Empty(cleared.FlagReason)

	listed, err = s.store.ListFlagged(ctx)
	s.Require().NoError(err)
	s.Empty(listed)

	_, err = s.store.SetFlagged(ctx, id.OrganizationID(uuid.New()), true, "x")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
