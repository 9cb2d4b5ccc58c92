package handler

import (
	"time"

	"givehub/internal/opportunity/models"
)

// OpportunityResponse is the JSON shape for an opportunity.
type OpportunityResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Location       string    `json:"location,omitempty"`
	Spots          int       `json:"spots"`
	SpotsRemaining int       `json:"spots_remaining"`
	CreatedAt      time.Time `json:"created_at"`
}

// ApplicationResponse is the JSON shape for an application.
type ApplicationResponse struct {
	ID             string               `json:"id"`
	ActorID        string               `json:"actor_id"`
	OpportunityID  string               `json:"opportunity_id"`
	OrganizationID string               `json:"organization_id"`
	Payload        models.ApplicantInfo `json:"payload"`
	Status         string               `json:"status"`
	ApprovalStatus string               `json:"approval_status"`
	ActivityHours  int                  `json:"activity_hours"`
	DecisionNote   string               `json:"decision_note,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// OpportunityListResponse wraps an opportunity listing.
type OpportunityListResponse struct {
	Opportunities []OpportunityResponse `json:"opportunities"`
	Total         int                   `json:"total"`
}

// ApplicationListResponse wraps an application listing.
type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int                   `json:"total"`
}

func FromOpportunity(o *models.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:             o.ID.String(),
		OrganizationID: o.OrganizationID.String(),
		Title:          o.Title,
		Description:    o.Description,
		Location:       o.Location,
		Spots:          o.Spots,
		SpotsRemaining: o.SpotsRemaining,
		CreatedAt:      o.CreatedAt,
	}
}

func FromOpportunities(opportunities []*models.Opportunity) OpportunityListResponse {
	out := OpportunityListResponse{Opportunities: make([]OpportunityResponse, 0, len(opportunities))}
	for _, o := range opportunities {
		out.Opportunities = append(out.Opportunities, FromOpportunity(o))
	}
	out.Total = len(out.Opportunities)
	return out
}

func FromApplication(a *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:             a.ID.String(),
		ActorID:        a.ActorID.String(),
		OpportunityID:  a.OpportunityID.String(),
		OrganizationID: a.OrganizationID.String(),
		Payload:        a.Payload,
		Status:         string(a.Status),
		ApprovalStatus: string(a.ApprovalStatus),
		ActivityHours:  a.ActivityHours,
		DecisionNote:   a.DecisionNote,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func FromApplications(apps []*models.Application) ApplicationListResponse {
	out := ApplicationListResponse{Applications: make([]ApplicationResponse, 0, len(apps))}
	for _, a := range apps {
		out.Applications = append(out.Applications, FromApplication(a))
	}
	out.Total = len(out.Applications)
	return out
}
