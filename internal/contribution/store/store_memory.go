package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"givehub/internal/contribution/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

// Memory is the in-memory contribution store (dev and tests).
type Memory struct {
	mu            sync.Mutex
	contributions map[id.ContributionID]*models.Contribution
	receiptSeq    uint64
}

func NewMemory() *Memory {
	return &Memory{contributions: make(map[id.ContributionID]*models.Contribution)}
}

func (s *Memory) Create(ctx context.Context, c *models.Contribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contributions[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.contributions[c.ID] = copyContribution(c)
	return nil
}

func (s *Memory) FindByID(ctx context.Context, contributionID id.ContributionID) (*models.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contributions[contributionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyContribution(c), nil
}

// Confirm is the pending→completed transition, one critical section. The
// first confirmation assigns the next receipt number and arms the approval
// queue; later calls see a completed record and return it unchanged with
// applied=false.
//
// Order-ref mismatch → ErrConflict. Confirm on failed → ErrInvalidState.
func (s *Memory) Confirm(ctx context.Context, contributionID id.ContributionID, orderRef, paymentRef string, now time.Time) (*models.Contribution, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contributions[contributionID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	if c.GatewayOrderRef != orderRef {
		return nil, false, sentinel.ErrConflict
	}
	switch c.Status {
	case models.StatusCompleted:
		return copyContribution(c), false, nil
	case models.StatusFailed:
		return nil, false, sentinel.ErrInvalidState
	}

	s.receiptSeq++
	c.Status = models.StatusCompleted
	c.GatewayPaymentRef = paymentRef
	c.ReceiptNumber = fmt.Sprintf("RCP-%08d", s.receiptSeq)
	c.ApprovalStatus = id.ApprovalPending
	c.UpdatedAt = now
	return copyContribution(c), true, nil
}

// MarkFailed records a gateway failure while the contribution is pending.
func (s *Memory) MarkFailed(ctx context.Context, contributionID id.ContributionID, now time.Time) (*models.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contributions[contributionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.Status != models.StatusPending {
		return nil, sentinel.ErrInvalidState
	}
	c.Status = models.StatusFailed
	c.UpdatedAt = now
	return copyContribution(c), nil
}

// ListPendingApprovals returns completed, undecided contributions for the
// organization, oldest first.
func (s *Memory) ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Contribution
	for _, c := range s.contributions {
		if c.OrganizationID == organizationID &&
			c.Status == models.StatusCompleted &&
			c.ApprovalStatus == id.ApprovalPending {
			out = append(out, copyContribution(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Decide flips ApprovalStatus pending→outcome under the lock; the loser of a
// concurrent decision gets ErrInvalidState.
func (s *Memory) Decide(ctx context.Context, contributionID id.ContributionID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contributions[contributionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.Status != models.StatusCompleted || c.ApprovalStatus != id.ApprovalPending {
		return nil, sentinel.ErrInvalidState
	}
	c.ApprovalStatus = outcome
	c.DecisionNote = note
	c.UpdatedAt = now
	return copyContribution(c), nil
}

func copyContribution(c *models.Contribution) *models.Contribution {
	dup := *c
	return &dup
}
