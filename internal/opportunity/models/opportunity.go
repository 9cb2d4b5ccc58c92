package models

import (
	"regexp"
	"strings"
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-]{6,14}$`)
)

// Opportunity is an organization-posted volunteering position.
//
// Spots is a soft cap: SpotsRemaining counts down as applications arrive but
// a full opportunity still accepts applications. Organizations triage the
// overflow during approval instead of racing applicants at the door.
type Opportunity struct {
	ID             id.OpportunityID  `json:"id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Location       string            `json:"location,omitempty"`
	Spots          int               `json:"spots"`
	SpotsRemaining int               `json:"spots_remaining"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ApplicationStatus tracks the volunteer's side of an application.
type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "applied"
	ApplicationCompleted ApplicationStatus = "completed"
)

// ApplicantInfo is the contributor-entered application payload.
type ApplicantInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate enforces the application payload boundary rules.
func (p *ApplicantInfo) Validate() error {
	p.FullName = strings.TrimSpace(p.FullName)
	if len(p.FullName) < 2 {
		return dErrors.New(dErrors.CodeValidation, "full_name must be at least 2 characters")
	}
	p.Email = strings.TrimSpace(p.Email)
	if !emailPattern.MatchString(p.Email) {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	p.Phone = strings.TrimSpace(p.Phone)
	if !phonePattern.MatchString(p.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone is not valid")
	}
	return nil
}

// Application is one actor's entry for an opportunity, unique per
// (ActorID, OpportunityID). Completion is self-reported by the volunteer and
// arms the organization's approval queue.
type Application struct {
	ID             id.ApplicationID  `json:"id"`
	ActorID        id.ActorID        `json:"actor_id"`
	OpportunityID  id.OpportunityID  `json:"opportunity_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Payload        ApplicantInfo     `json:"payload"`
	Status         ApplicationStatus `json:"status"`
	ApprovalStatus id.ApprovalStatus `json:"approval_status"`
	ActivityHours  int               `json:"activity_hours"`
	DecisionNote   string            `json:"decision_note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
