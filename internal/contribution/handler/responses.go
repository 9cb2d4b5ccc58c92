package handler

import (
	"time"

	"givehub/internal/contribution/models"
)

// ContributionResponse is the JSON shape for a contribution.
type ContributionResponse struct {
	ID              string    `json:"id"`
	ContributorID   string    `json:"contributor_id"`
	OrganizationID  string    `json:"organization_id"`
	CampaignID      string    `json:"campaign_id"`
	Amount          int64     `json:"amount"`
	PaymentMethod   string    `json:"payment_method"`
	GatewayOrderRef string    `json:"gateway_order_ref"`
	Status          string    `json:"status"`
	ApprovalStatus  string    `json:"approval_status"`
	ReceiptNumber   string    `json:"receipt_number,omitempty"`
	DecisionNote    string    `json:"decision_note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListResponse wraps an approval-queue listing.
type ListResponse struct {
	Contributions []ContributionResponse `json:"contributions"`
	Total         int                    `json:"total"`
}

func FromContribution(c *models.Contribution) ContributionResponse {
	return ContributionResponse{
		ID:              c.ID.String(),
		ContributorID:   c.ContributorID.String(),
		OrganizationID:  c.OrganizationID.String(),
		CampaignID:      c.CampaignID.String(),
		Amount:          c.Amount,
		PaymentMethod:   string(c.PaymentMethod),
		GatewayOrderRef: c.GatewayOrderRef,
		Status:          string(c.Status),
		ApprovalStatus:  string(c.ApprovalStatus),
		ReceiptNumber:   c.ReceiptNumber,
		DecisionNote:    c.DecisionNote,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func FromContributions(contributions []*models.Contribution) ListResponse {
	out := ListResponse{Contributions: make([]ContributionResponse, 0, len(contributions))}
	for _, c := range contributions {
		out.Contributions = append(out.Contributions, FromContribution(c))
	}
	out.Total = len(out.Contributions)
	return out
}
