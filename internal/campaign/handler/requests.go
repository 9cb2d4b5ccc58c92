package handler

import (
	"strings"

	"givehub/internal/campaign/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// CreateCampaignRequest is the HTTP request body for POST /campaigns.
type CreateCampaignRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	GoalAmount     int64  `json:"goal_amount"`
	AcceptsFunding bool   `json:"accepts_funding"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCampaignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	if r.GoalAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "goal_amount must not be negative")
	}
	if r.AcceptsFunding && r.GoalAmount == 0 {
		return dErrors.New(dErrors.CodeValidation, "goal_amount is required when funding is accepted")
	}
	return nil
}

// RegisterRequest is the HTTP request body for POST /campaigns/{id}/volunteer.
type RegisterRequest struct {
	FullName     string `json:"full_name"`
	Contact      string `json:"contact"`
	Availability string `json:"availability"`
	Motivation   string `json:"motivation"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	payload := r.Payload()
	return payload.Validate()
}

// Payload converts the request body to the domain registration payload.
func (r *RegisterRequest) Payload() models.RegistrationInfo {
	return models.RegistrationInfo{
		FullName:     strings.TrimSpace(r.FullName),
		Contact:      strings.TrimSpace(r.Contact),
		Availability: strings.TrimSpace(r.Availability),
		Motivation:   strings.TrimSpace(r.Motivation),
	}
}

// DecideRequest is the HTTP request body for
// POST /campaigns/{id}/volunteer/decision.
type DecideRequest struct {
	VolunteerID   string `json:"volunteer_id"`
	Decision      string `json:"decision"`
	Note          string `json:"note"`
	ActivityHours *int   `json:"activity_hours"`

	parsedVolunteerID id.ActorID
	parsedDecision    id.Decision
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DecideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	volunteerID, err := id.ParseActorID(r.VolunteerID)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "volunteer_id must be a valid id")
	}
	r.parsedVolunteerID = volunteerID

	decision, err := id.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = decision

	if r.ActivityHours != nil && *r.ActivityHours <= 0 {
		return dErrors.New(dErrors.CodeValidation, "activity_hours must be positive")
	}
	if len(r.Note) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 1000 characters")
	}
	return nil
}

// ParsedVolunteerID returns the validated volunteer actor id.
func (r *DecideRequest) ParsedVolunteerID() id.ActorID { return r.parsedVolunteerID }

// ParsedDecision returns the validated decision.
func (r *DecideRequest) ParsedDecision() id.Decision { return r.parsedDecision }
