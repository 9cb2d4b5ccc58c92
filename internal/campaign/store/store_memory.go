package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"givehub/internal/campaign/models"
	id "givehub/pkg/domain"
	"givehub/pkg/platform/sentinel"
)

type regKey struct {
	campaign id.CampaignID
	actor    id.ActorID
}

// Memory holds campaigns and their volunteer rosters behind one mutex so
// roster membership and the VolunteersEngaged counter move together.
type Memory struct {
	mu            sync.Mutex
	campaigns     map[id.CampaignID]*models.Campaign
	registrations map[regKey]*models.Registration
}

func NewMemory() *Memory {
	return &Memory{
		campaigns:     make(map[id.CampaignID]*models.Campaign),
		registrations: make(map[regKey]*models.Registration),
	}
}

func (s *Memory) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[c.ID]; ok {
		return sentinel.ErrConflict
	}
	s.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (s *Memory) FindCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCampaignLocked(campaignID)
}

func (s *Memory) findCampaignLocked(campaignID id.CampaignID) (*models.Campaign, error) {
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyCampaign(c), nil
}

func (s *Memory) ListCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, copyCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddRaised atomically adds a confirmed contribution amount to the campaign
// raised counter.
func (s *Memory) AddRaised(ctx context.Context, campaignID id.CampaignID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[campaignID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.RaisedAmount += amount
	return nil
}

func (s *Memory) SetFlagged(ctx context.Context, campaignID id.CampaignID, flagged bool, reason string) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c.Flagged = flagged
	c.FlagReason = reason
	return copyCampaign(c), nil
}

func (s *Memory) ListFlagged(ctx context.Context) ([]*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Campaign
	for _, c := range s.campaigns {
		if c.Flagged {
			out = append(out, copyCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpsertRegistration adds the actor to the roster or replaces an existing
// registration's payload. The roster is a set keyed by actor, so re-registering
// never double-counts; VolunteersEngaged only moves up to the roster size.
// Returns created=false on a payload refresh.
func (s *Memory) UpsertRegistration(ctx context.Context, reg *models.Registration, now time.Time) (*models.Registration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[reg.CampaignID]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}

	key := regKey{campaign: reg.CampaignID, actor: reg.ActorID}
	if existing, ok := s.registrations[key]; ok {
		existing.Payload = reg.Payload
		existing.UpdatedAt = now
		return copyRegistration(existing), false, nil
	}

	stored := copyRegistration(reg)
	stored.ApprovalStatus = id.ApprovalPending
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.registrations[key] = stored

	rosterSize := 0
	for k := range s.registrations {
		if k.campaign == reg.CampaignID {
			rosterSize++
		}
	}
	if rosterSize > c.VolunteersEngaged {
		c.VolunteersEngaged = rosterSize
	}
	return copyRegistration(stored), true, nil
}

func (s *Memory) FindRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[regKey{campaign: campaignID, actor: actorID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRegistration(reg), nil
}

// ListPendingRegistrations returns undecided registrations across the
// organization's campaigns, oldest first.
func (s *Memory) ListPendingRegistrations(ctx context.Context, organizationID id.OrganizationID) ([]*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Registration
	for _, reg := range s.registrations {
		if reg.OrganizationID == organizationID && reg.ApprovalStatus == id.ApprovalPending {
			out = append(out, copyRegistration(reg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DecideRegistration flips pending→outcome under the lock; a second decision
// for the same registration loses with ErrInvalidState. A non-nil
// hoursOverride replaces the volunteer's recorded hours.
func (s *Memory) DecideRegistration(ctx context.Context, campaignID id.CampaignID, actorID id.ActorID, outcome id.ApprovalStatus, note string, hoursOverride *int, now time.Time) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[regKey{campaign: campaignID, actor: actorID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if reg.ApprovalStatus != id.ApprovalPending {
		return nil, sentinel.ErrInvalidState
	}
	reg.ApprovalStatus = outcome
	reg.DecisionNote = note
	if hoursOverride != nil {
		reg.ActivityHours = *hoursOverride
	}
	reg.UpdatedAt = now
	return copyRegistration(reg), nil
}

func copyCampaign(c *models.Campaign) *models.Campaign {
	dup := *c
	return &dup
}

func copyRegistration(r *models.Registration) *models.Registration {
	dup := *r
	return &dup
}
