package handler

import (
	"time"

	"givehub/internal/moderation/models"
)

// FlagRequestResponse is the JSON shape for a flag request.
type FlagRequestResponse struct {
	ID          string     `json:"id"`
	TargetType  string     `json:"target_type"`
	TargetID    string     `json:"target_id"`
	TargetName  string     `json:"target_name,omitempty"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListResponse wraps a moderation queue listing.
type ListResponse struct {
	FlagRequests []FlagRequestResponse `json:"flag_requests"`
	Total        int                   `json:"total"`
}

func FromFlagRequest(r *models.FlagRequest) FlagRequestResponse {
	resp := FlagRequestResponse{
		ID:          r.ID.String(),
		TargetType:  string(r.TargetType),
		TargetID:    r.TargetID,
		TargetName:  r.TargetName,
		Reason:      r.Reason,
		Status:      string(r.Status),
		RequestedBy: r.RequestedBy.String(),
		ResolvedAt:  r.ResolvedAt,
		CreatedAt:   r.CreatedAt,
	}
	if !r.ResolvedBy.IsNil() {
		resp.ResolvedBy = r.ResolvedBy.String()
	}
	return resp
}

func FromFlagRequests(requests []*models.FlagRequest) ListResponse {
	out := ListResponse{FlagRequests: make([]FlagRequestResponse, 0, len(requests))}
	for _, r := range requests {
		out.FlagRequests = append(out.FlagRequests, FromFlagRequest(r))
	}
	out.Total = len(out.FlagRequests)
	return out
}
