package handler

import (
	"strings"

	"givehub/internal/opportunity/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// CreateOpportunityRequest is the HTTP request body for POST /opportunities.
type CreateOpportunityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Spots       int    `json:"spots"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateOpportunityRequest) Validate() error {
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
	if r.Spots <= 0 {
		return dErrors.New(dErrors.CodeValidation, "spots must be positive")
	}
	return nil
}

// ApplyRequest is the HTTP request body for POST /opportunities/{id}/apply.
type ApplyRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ApplyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	payload := r.Payload()
	return payload.Validate()
}

// Payload converts the request body to the domain applicant payload.
func (r *ApplyRequest) Payload() models.ApplicantInfo {
	return models.ApplicantInfo{
		FullName: strings.TrimSpace(r.FullName),
		Email:    strings.TrimSpace(r.Email),
		Phone:    strings.TrimSpace(r.Phone),
	}
}

// CompleteRequest is the HTTP request body for
// POST /opportunities/applications/{id}/complete.
type CompleteRequest struct {
	ActivityHours int `json:"activity_hours"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CompleteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ActivityHours <= 0 {
		return dErrors.New(dErrors.CodeValidation, "activity_hours must be positive")
	}
	return nil
}

// DecideRequest is the HTTP request body for
// POST /opportunities/applications/{id}/certificate/decision.
type DecideRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`

	parsedDecision id.Decision
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *DecideRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	decision, err := id.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = decision
	if len(r.Note) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 1000 characters")
	}
	return nil
}

// ParsedDecision returns the validated decision.
func (r *DecideRequest) ParsedDecision() id.Decision { return r.parsedDecision }
