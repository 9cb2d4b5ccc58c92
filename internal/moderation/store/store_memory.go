package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"givehub/internal/moderation/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

type pendingKey struct {
	targetType models.TargetType
	targetID   string
	requester  id.ActorID
}

// Memory is the in-memory flag request store (dev and tests).
type Memory struct {
	mu       sync.Mutex
	requests map[id.FlagRequestID]*models.FlagRequest
	pending  map[pendingKey]id.FlagRequestID
}

func NewMemory() *Memory {
	return &Memory{
		requests: make(map[id.FlagRequestID]*models.FlagRequest),
		pending:  make(map[pendingKey]id.FlagRequestID),
	}
}

// Submit inserts the request unless the same requester already has a pending
// one for the same target. The check and insert are one critical section, so
// concurrent duplicate submissions produce exactly one request.
func (s *Memory) Submit(ctx context.Context, req *models.FlagRequest) (*models.FlagRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pendingKey{targetType: req.TargetType, targetID: req.TargetID, requester: req.RequestedBy}
	if _, ok := s.pending[key]; ok {
		return nil, sentinel.ErrConflict
	}

	stored := copyRequest(req)
	s.requests[stored.ID] = stored
	s.pending[key] = stored.ID
	return copyRequest(stored), nil
}

func (s *Memory) FindByID(ctx context.Context, requestID id.FlagRequestID) (*models.FlagRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRequest(req), nil
}

// List returns requests matching the filter, newest first.
func (s *Memory) List(ctx context.Context, filter models.ListFilter) ([]*models.FlagRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.FlagRequest
	for _, req := range s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.TargetType != "" && req.TargetType != filter.TargetType {
			continue
		}
		out = append(out, copyRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Resolve flips pending→outcome under the lock, stamping the resolver.
// A resolved request loses its pending-uniqueness slot so the requester may
// flag the target again later.
func (s *Memory) Resolve(ctx context.Context, requestID id.FlagRequestID, outcome models.RequestStatus, adminID id.ActorID, now time.Time) (*models.FlagRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status != models.RequestPending {
		return nil, sentinel.ErrInvalidState
	}
	req.Status = outcome
	req.ResolvedBy = adminID
	resolved := now
	req.ResolvedAt = &resolved
	delete(s.pending, pendingKey{targetType: req.TargetType, targetID: req.TargetID, requester: req.RequestedBy})
	return copyRequest(req), nil
}

func copyRequest(r *models.FlagRequest) *models.FlagRequest {
	dup := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		dup.ResolvedAt = &t
	}
	return &dup
}
