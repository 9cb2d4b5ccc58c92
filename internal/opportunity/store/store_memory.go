package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"givehub/internal/opportunity/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

type applicantKey struct {
	actor       id.ActorID
	opportunity id.OpportunityID
}

// Memory holds opportunities and applications behind one mutex so spot
// accounting and application uniqueness move together.
type Memory struct {
	mu            sync.Mutex
	opportunities map[id.OpportunityID]*models.Opportunity
	applications  map[id.ApplicationID]*models.Application
	byApplicant   map[applicantKey]id.ApplicationID
}

func NewMemory() *Memory {
	return &Memory{
		opportunities: make(map[id.OpportunityID]*models.Opportunity),
		applications:  make(map[id.ApplicationID]*models.Application),
		byApplicant:   make(map[applicantKey]id.ApplicationID),
	}
}

func (s *Memory) CreateOpportunity(ctx context.Context, o *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.opportunities[o.ID]; ok {
		return sentinel.ErrConflict
	}
	s.opportunities[o.ID] = copyOpportunity(o)
	return nil
}

func (s *Memory) FindOpportunity(ctx context.Context, opportunityID id.OpportunityID) (*models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.opportunities[opportunityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOpportunity(o), nil
}

func (s *Memory) ListOpportunities(ctx context.Context) ([]*models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Opportunity, 0, len(s.opportunities))
	for _, o := range s.opportunities {
		out = append(out, copyOpportunity(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CreateApplication inserts the application if the actor has none for this
// opportunity, and takes a spot when one is left. A full opportunity still
// accepts the application; SpotsRemaining just stays at zero.
func (s *Memory) CreateApplication(ctx context.Context, app *models.Application) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.opportunities[app.OpportunityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	key := applicantKey{actor: app.ActorID, opportunity: app.OpportunityID}
	if _, ok := s.byApplicant[key]; ok {
		return nil, sentinel.ErrConflict
	}

	stored := copyApplication(app)
	s.applications[stored.ID] = stored
	s.byApplicant[key] = stored.ID
	if o.SpotsRemaining > 0 {
		o.SpotsRemaining--
	}
	return copyApplication(stored), nil
}

func (s *Memory) FindApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApplication(app), nil
}

// FindApplicationForActor returns the actor's application for an opportunity.
func (s *Memory) FindApplicationForActor(ctx context.Context, opportunityID id.OpportunityID, actorID id.ActorID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appID, ok := s.byApplicant[applicantKey{actor: actorID, opportunity: opportunityID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApplication(s.applications[appID]), nil
}

func (s *Memory) ListApplicationsForActor(ctx context.Context, actorID id.ActorID) ([]*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Application
	for _, app := range s.applications {
		if app.ActorID == actorID {
			out = append(out, copyApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkCompleted is the applied→completed transition, owner only, one critical
// section. Completion records the self-reported hours and arms the approval
// queue.
func (s *Memory) MarkCompleted(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID, hours int, now time.Time) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok || app.ActorID != actorID {
		return nil, sentinel.ErrNotFound
	}
	if app.Status != models.ApplicationApplied {
		return nil, sentinel.ErrInvalidState
	}
	app.Status = models.ApplicationCompleted
	app.ActivityHours = hours
	app.ApprovalStatus = id.ApprovalPending
	app.UpdatedAt = now
	return copyApplication(app), nil
}

// ListPendingApprovals returns completed, undecided applications for the
// organization, oldest first.
func (s *Memory) ListPendingApprovals(ctx context.Context, organizationID id.OrganizationID) ([]*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Application
	for _, app := range s.applications {
		if app.OrganizationID == organizationID && app.ApprovalStatus == id.ApprovalPending {
			out = append(out, copyApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Decide flips ApprovalStatus pending→outcome under the lock.
func (s *Memory) Decide(ctx context.Context, applicationID id.ApplicationID, outcome id.ApprovalStatus, note string, now time.Time) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if app.ApprovalStatus != id.ApprovalPending {
		return nil, sentinel.ErrInvalidState
	}
	app.ApprovalStatus = outcome
	app.DecisionNote = note
	app.UpdatedAt = now
	return copyApplication(app), nil
}

// Withdraw removes an undecided application and releases its spot.
func (s *Memory) Withdraw(ctx context.Context, applicationID id.ApplicationID, actorID id.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok || app.ActorID != actorID {
		return sentinel.ErrNotFound
	}
	if app.ApprovalStatus.Terminal() {
		return sentinel.ErrInvalidState
	}

	delete(s.applications, applicationID)
	delete(s.byApplicant, applicantKey{actor: app.ActorID, opportunity: app.OpportunityID})
	if o, ok := s.opportunities[app.OpportunityID]; ok && o.SpotsRemaining < o.Spots {
		o.SpotsRemaining++
	}
	return nil
}

func copyOpportunity(o *models.Opportunity) *models.Opportunity {
	dup := *o
	return &dup
}

func copyApplication(a *models.Application) *models.Application {
	dup := *a
	return &dup
}
