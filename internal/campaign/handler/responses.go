package handler

import (
	"time"

	"givehub/internal/campaign/models"
)

// CampaignResponse is the JSON shape for a campaign.
type CampaignResponse struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	GoalAmount        int64     `json:"goal_amount"`
	RaisedAmount      int64     `json:"raised_amount"`
	AcceptsFunding    bool      `json:"accepts_funding"`
	VolunteersEngaged int       `json:"volunteers_engaged"`
	Flagged           bool      `json:"flagged"`
	FlagReason        string    `json:"flag_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// RegistrationResponse is the JSON shape for a roster entry.
type RegistrationResponse struct {
	CampaignID     string                  `json:"campaign_id"`
	ActorID        string                  `json:"actor_id"`
	OrganizationID string                  `json:"organization_id"`
	Payload        models.RegistrationInfo `json:"payload"`
	ApprovalStatus string                  `json:"approval_status"`
	ActivityHours  int                     `json:"activity_hours"`
	DecisionNote   string                  `json:"decision_note,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// MyRegistrationResponse reports roster membership for the caller.
type MyRegistrationResponse struct {
	Joined       bool                  `json:"joined"`
	Registration *RegistrationResponse `json:"registration,omitempty"`
}

// CampaignListResponse wraps a campaign listing.
type CampaignListResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
	Total     int                `json:"total"`
}

// RegistrationListResponse wraps a pending-approvals listing.
type RegistrationListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Total         int                    `json:"total"`
}

func FromCampaign(c *models.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:                c.ID.String(),
		OrganizationID:    c.OrganizationID.String(),
		Title:             c.Title,
		Description:       c.Description,
		GoalAmount:        c.GoalAmount,
		RaisedAmount:      c.RaisedAmount,
		AcceptsFunding:    c.AcceptsFunding,
		VolunteersEngaged: c.VolunteersEngaged,
		Flagged:           c.Flagged,
		FlagReason:        c.FlagReason,
		CreatedAt:         c.CreatedAt,
	}
}

func FromCampaigns(campaigns []*models.Campaign) CampaignListResponse {
	out := CampaignListResponse{Campaigns: make([]CampaignResponse, 0, len(campaigns))}
	for _, c := range campaigns {
		out.Campaigns = append(out.Campaigns, FromCampaign(c))
	}
	out.Total = len(out.Campaigns)
	return out
}

func FromRegistration(r *models.Registration) RegistrationResponse {
	return RegistrationResponse{
		CampaignID:     r.CampaignID.String(),
		ActorID:        r.ActorID.String(),
		OrganizationID: r.OrganizationID.String(),
		Payload:        r.Payload,
		ApprovalStatus: string(r.ApprovalStatus),
		ActivityHours:  r.ActivityHours,
		DecisionNote:   r.DecisionNote,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func FromRegistrations(regs []*models.Registration) RegistrationListResponse {
	out := RegistrationListResponse{Registrations: make([]RegistrationResponse, 0, len(regs))}
	for _, r := range regs {
		out.Registrations = append(out.Registrations, FromRegistration(r))
	}
	out.Total = len(out.Registrations)
	return out
}
