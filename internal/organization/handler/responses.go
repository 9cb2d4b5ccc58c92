package handler

import (
	"time"

	"givehub/internal/organization/models"
)

// OrganizationResponse is the JSON shape for a directory profile.
type OrganizationResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Location   string    `json:"location"`
	Mission    string    `json:"mission,omitempty"`
	Verified   bool      `json:"verified"`
	Flagged    bool      `json:"flagged"`
	FlagReason string    `json:"flag_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListResponse wraps a directory listing.
type ListResponse struct {
	Organizations []OrganizationResponse `json:"organizations"`
	Total         int                    `json:"total"`
}

func FromOrganization(o *models.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:         o.ID.String(),
		Name:       o.Name,
		Category:   string(o.Category),
		Location:   o.Location,
		Mission:    o.Mission,
		Verified:   o.Verified,
		Flagged:    o.Flagged,
		FlagReason: o.FlagReason,
		CreatedAt:  o.CreatedAt,
	}
}

func FromOrganizations(orgs []*models.Organization) ListResponse {
	out := ListResponse{Organizations: make([]OrganizationResponse, 0, len(orgs))}
	for _, o := range orgs {
		out.Organizations = append(out.Organizations, FromOrganization(o))
	}
	out.Total = len(out.Organizations)
	return out
}
