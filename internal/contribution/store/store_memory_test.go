package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"givehub/internal/contribution/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) newPending(orderRef string) *models.Contribution {
	c := &models.Contribution{
		ID:              id.ContributionID(uuid.New()),
		ContributorID:   id.ActorID(uuid.New()),
		OrganizationID:  id.OrganizationID(uuid.New()),
		CampaignID:      id.CampaignID(uuid.New()),
		Amount:          2500,
		PaymentMethod:   models.MethodCard,
		DonorInfo:       models.DonorInfo{Name: "Asha Rao"},
		GatewayOrderRef: orderRef,
		Status:          models.StatusPending,
		ApprovalStatus:  id.ApprovalNone,
		CreatedAt:       s.now,
		UpdatedAt:       s.now,
	}
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *MemoryStoreSuite) TestCreate() {
	s.Run("duplicate id rejected", func() {
		c := s.newPending("order_dup")
		err := s.store.Create(s.ctx, c)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("find returns a copy", func() {
		c := s.newPending("order_copy")
		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.Amount = 9999

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(int64(2500), again.Amount)
	})

	s.Run("unknown id not found", func() {
		_, err := s.store.FindByID(s.ctx, id.ContributionID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestConfirm() {
	s.Run("first confirm applies and assigns receipt", func() {
		c := s.newPending("order_first")
		confirmed, applied, err := s.store.Confirm(s.ctx, c.ID, "order_first", "pay_1", s.now)
		s.Require().NoError(err)
		s.True(applied)
		s.Equal(models.StatusCompleted, confirmed.Status)
		s.Equal(id.ApprovalPending, confirmed.ApprovalStatus)
		s.Equal("pay_1", confirmed.GatewayPaymentRef)
		s.NotEmpty(confirmed.ReceiptNumber)
	})

	s.Run("replayed confirm returns same record unchanged", func() {
		c := s.newPending("order_replay")
		first, applied, err := s.store.Confirm(s.ctx, c.ID, "order_replay", "pay_1", s.now)
		s.Require().NoError(err)
		s.Require().True(applied)

		second, applied, err := s.store.Confirm(s.ctx, c.ID, "order_replay", "pay_other", s.now.Add(time.Minute))
		s.Require().NoError(err)
		s.False(applied)
		s.Equal(first.ReceiptNumber, second.ReceiptNumber)
		s.Equal("pay_1", second.GatewayPaymentRef)
	})

	s.Run("order ref mismatch conflicts", func() {
		c := s.newPending("order_real")
		_, _, err := s.store.Confirm(s.ctx, c.ID, "order_forged", "pay_1", s.now)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("confirm after failure rejected", func() {
		c := s.newPending("order_failed")
		_, err := s.store.MarkFailed(s.ctx, c.ID, s.now)
		s.Require().NoError(err)

		_, _, err = s.store.Confirm(s.ctx, c.ID, "order_failed", "pay_1", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("receipt numbers are distinct and sequential", func() {
		a := s.newPending("order_seq_a")
		b := s.newPending("order_seq_b")

		ca, _, err := s.store.Confirm(s.ctx, a.ID, "order_seq_a", "pay_a", s.now)
		s.Require().NoError(err)
		cb, _, err := s.store.Confirm(s.ctx, b.ID, "order_seq_b", "pay_b", s.now)
		s.Require().NoError(err)
		s.NotEqual(ca.ReceiptNumber, cb.ReceiptNumber)
	})
}

func (s *MemoryStoreSuite) TestConcurrentConfirm() {
	c := s.newPending("order_race")

	var wg sync.WaitGroup
	var mu sync.Mutex
	appliedCount := 0

	for range 50 {
		wg.Go(func() {
			_, applied, err := s.store.Confirm(s.ctx, c.ID, "order_race", "pay_race", s.now)
			s.Require().NoError(err)
			if applied {
				mu.Lock()
				appliedCount++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	s.Equal(1, appliedCount)
}

func (s *MemoryStoreSuite) TestMarkFailed() {
	s.Run("pending contribution fails", func() {
		c := s.newPending("order_fail")
		failed, err := s.store.MarkFailed(s.ctx, c.ID, s.now)
		s.Require().NoError(err)
		s.Equal(models.StatusFailed, failed.Status)
	})

	s.Run("completed contribution cannot fail", func() {
		c := s.newPending("order_done")
		_, _, err := s.store.Confirm(s.ctx, c.ID, "order_done", "pay_1", s.now)
		s.Require().NoError(err)

		_, err = s.store.MarkFailed(s.ctx, c.ID, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *MemoryStoreSuite) TestDecide() {
	s.Run("pending approval flips to outcome", func() {
		c := s.newPending("order_decide")
		_, _, err := s.store.Confirm(s.ctx, c.ID, "order_decide", "pay_1", s.now)
		s.Require().NoError(err)

		decided, err := s.store.Decide(s.ctx, c.ID, id.ApprovalApproved, "thanks", s.now)
		s.Require().NoError(err)
		s.Equal(id.ApprovalApproved, decided.ApprovalStatus)
		s.Equal("thanks", decided.DecisionNote)
	})

	s.Run("second decision loses", func() {
		c := s.newPending("order_double")
		_, _, err := s.store.Confirm(s.ctx, c.ID, "order_double", "pay_1", s.now)
		s.Require().NoError(err)

		_, err = s.store.Decide(s.ctx, c.ID, id.ApprovalApproved, "", s.now)
		s.Require().NoError(err)
		_, err = s.store.Decide(s.ctx, c.ID, id.ApprovalRejected, "", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unconfirmed contribution cannot be decided", func() {
		c := s.newPending("order_early")
		_, err := s.store.Decide(s.ctx, c.ID, id.ApprovalApproved, "", s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *MemoryStoreSuite) TestConcurrentDecide() {
	c := s.newPending("order_decide_race")
	_, _, err := s.store.Confirm(s.ctx, c.ID, "order_decide_race", "pay_1", s.now)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for range 20 {
		wg.Go(func() {
			if _, err := s.store.Decide(s.ctx, c.ID, id.ApprovalApproved, "", s.now); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	s.Equal(1, winners)
}

func (s *MemoryStoreSuite) TestListPendingApprovals() {
	orgID := id.OrganizationID(uuid.New())

	oldest := s.newPending("order_old")
	oldest.OrganizationID = orgID
	// Re-create under the shared organization with staggered creation times.
	s.store.mu.Lock()
	s.store.contributions[oldest.ID].OrganizationID = orgID
	s.store.contributions[oldest.ID].CreatedAt = s.now.Add(-time.Hour)
	s.store.mu.Unlock()

	newest := s.newPending("order_new")
	s.store.mu.Lock()
	s.store.contributions[newest.ID].OrganizationID = orgID
	s.store.mu.Unlock()

	for _, ref := range []struct {
		c   *models.Contribution
		ord string
	}{{oldest, "order_old"}, {newest, "order_new"}} {
		_, _, err := s.store.Confirm(s.ctx, ref.c.ID, ref.ord, "pay", s.now)
		s.Require().NoError(err)
	}

	// A contribution for another organization must not appear.
	other := s.newPending("order_other")
	_, _, err := s.store.Confirm(s.ctx, other.ID, "order_other", "pay", s.now)
	s.Require().NoError(err)

	pending, err := s.store.ListPendingApprovals(s.ctx, orgID)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(oldest.ID, pending[0].ID)
	s.Equal(newest.ID, pending[1].ID)
}
