//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"givehub/internal/contribution/models"
	"givehub/internal/contribution/store"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres

	campaignID id.CampaignID
	orgID      id.OrganizationID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "contributions", "campaigns"))

	// Contributions reference a campaign row.
	s.orgID = id.OrganizationID(uuid.New())
	s.campaignID = id.CampaignID(uuid.New())
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO campaigns (id, organization_id, title, accepts_funding, created_at)
		VALUES ($1, $2, 'Tree Planting Drive', TRUE, $3)
	`, uuid.UUID(s.campaignID), uuid.UUID(s.orgID), time.Now())
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newPending() *models.Contribution {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Contribution{
		ID:              id.ContributionID(uuid.New()),
		ContributorID:   id.ActorID(uuid.New()),
		OrganizationID:  s.orgID,
		CampaignID:      s.campaignID,
		Amount:          2500,
		PaymentMethod:   models.MethodUPI,
		DonorInfo:       models.DonorInfo{Name: "Asha Rao", Email: "asha@example.com"},
		GatewayOrderRef: "order_" + uuid.NewString(),
		Status:          models.StatusPending,
		ApprovalStatus:  id.ApprovalNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	c := s.newPending()
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.GatewayOrderRef, found.GatewayOrderRef)
	s.Equal(models.StatusPending, found.Status)
	s.Equal("Asha Rao", found.DonorInfo.Name)

	_, err = s.store.FindByID(ctx, id.ContributionID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentConfirm verifies that N concurrent gateway callbacks apply
// the completed transition exactly once and allocate exactly one receipt.
func (s *PostgresStoreSuite) TestConcurrentConfirm() {
	ctx := context.Background()
	c := s.newPending()
	s.Require().NoError(s.store.Create(ctx, c))

	const goroutines = 50
	var wg sync.WaitGroup
	var appliedCount atomic.Int32
	receipts := make(chan string, goroutines)

	for range goroutines {
		wg.Go(func() {
			confirmed, applied, err := s.store.Confirm(ctx, c.ID, c.GatewayOrderRef, "pay_123", time.Now())
			if err != nil {
				return
			}
			if applied {
				appliedCount.Add(1)
			}
			receipts <- confirmed.ReceiptNumber
		})
	}
	wg.Wait()
	close(receipts)

	s.Equal(int32(1), appliedCount.Load())
	seen := make(map[string]struct{})
	for r := range receipts {
		seen[r] = struct{}{}
	}
	s.Len(seen, 1, "every caller must observe the same receipt")
}

func (s *PostgresStoreSuite) TestConfirmGuards() {
	ctx := context.Background()
	c := s.newPending()
	s.Require().NoError(s.store.Create(ctx, c))

	s.Run("order ref mismatch", func() {
		_, _, err := s.store.Confirm(ctx, c.ID, "order_wrong", "pay_123", time.Now())
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("failed contribution cannot confirm", func() {
		_, err := s.store.MarkFailed(ctx, c.ID, time.Now())
		s.Require().NoError(err)

		_, _, err = s.store.Confirm(ctx, c.ID, c.GatewayOrderRef, "pay_123", time.Now())
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

// TestConcurrentDecide verifies that exactly one of N concurrent decisions
// wins the pending→terminal transition.
func (s *PostgresStoreSuite) TestConcurrentDecide() {
	ctx := context.Background()
	c := s.newPending()
	s.Require().NoError(s.store.Create(ctx, c))
	_, _, err := s.store.Confirm(ctx, c.ID, c.GatewayOrderRef, "pay_123", time.Now())
	s.Require().NoError(err)

	const goroutines = 50
	var wg sync.WaitGroup
	var winCount atomic.Int32
	var staleCount atomic.Int32

	for i := range goroutines {
		outcome := id.ApprovalApproved
		if i%2 == 1 {
			outcome = id.ApprovalRejected
		}
		wg.Go(func() {
			_, err := s.store.Decide(ctx, c.ID, outcome, "", time.Now())
			switch {
			case err == nil:
				winCount.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				staleCount.Add(1)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(1), winCount.Load())
	s.Equal(int32(goroutines-1), staleCount.Load())

	final, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.True(final.ApprovalStatus.Terminal())
}

func (s *PostgresStoreSuite) TestListPendingApprovals() {
	ctx := context.Background()

	first := s.newPending()
	s.Require().NoError(s.store.Create(ctx, first))
	_, _, err := s.store.Confirm(ctx, first.ID, first.GatewayOrderRef, "pay_1", time.Now())
	s.Require().NoError(err)

	second := s.newPending()
	second.CreatedAt = second.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, second))
	_, _, err = s.store.Confirm(ctx, second.ID, second.GatewayOrderRef, "pay_2", time.Now())
	s.Require().NoError(err)

	// Still-pending contributions stay out of the queue.
	unconfirmed := s.newPending()
	s.Require().NoError(s.store.Create(ctx, unconfirmed))

	pending, err := s.store.ListPendingApprovals(ctx, s.orgID)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID, "queue is oldest first")
	s.Equal(second.ID, pending[1].ID)

	_, err = s.store.Decide(ctx, first.ID, id.ApprovalApproved, "", time.Now())
	s.Require().NoError(err)

	pending, err = s.store.ListPendingApprovals(ctx, s.orgID)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)
}
