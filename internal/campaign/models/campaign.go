package models

import (
	"fmt"
	"strings"
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// Campaign is an organization-owned fundraising or volunteering drive.
//
// RaisedAmount and VolunteersEngaged are maintained by the store as atomic
// counters; VolunteersEngaged is monotonic and never decreases.
type Campaign struct {
	ID                id.CampaignID     `json:"id"`
	OrganizationID    id.OrganizationID `json:"organization_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	GoalAmount        int64             `json:"goal_amount"`
	RaisedAmount      int64             `json:"raised_amount"`
	AcceptsFunding    bool              `json:"accepts_funding"`
	VolunteersEngaged int               `json:"volunteers_engaged"`
	Flagged           bool              `json:"flagged"`
	FlagReason        string            `json:"flag_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Registration is a volunteer's entry in a campaign roster, keyed by
// (CampaignID, ActorID). Re-registering replaces the payload.
type Registration struct {
	CampaignID     id.CampaignID     `json:"campaign_id"`
	ActorID        id.ActorID        `json:"actor_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Payload        RegistrationInfo  `json:"payload"`
	ApprovalStatus id.ApprovalStatus `json:"approval_status"`
	ActivityHours  int               `json:"activity_hours"`
	DecisionNote   string            `json:"decision_note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SourceRecordID is the certificate source key for this registration.
func (r *Registration) SourceRecordID() string {
	return fmt.Sprintf("%s:%s", r.CampaignID.String(), r.ActorID.String())
}

// RegistrationInfo is the volunteer-entered registration payload.
type RegistrationInfo struct {
	FullName     string `json:"full_name"`
	Contact      string `json:"contact"`
	Availability string `json:"availability,omitempty"`
	Motivation   string `json:"motivation,omitempty"`
}

// Validate enforces the registration payload boundary rules.
func (p *RegistrationInfo) Validate() error {
	p.FullName = strings.TrimSpace(p.FullName)
	if len(p.FullName) < 2 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be at least 2 characters")
	}
	p.Contact = strings.TrimSpace(p.Contact)
	if p.Contact == "" {
		return dErrors.New(dErrors.CodeValidation, "contact is required")
	}
	return nil
}
