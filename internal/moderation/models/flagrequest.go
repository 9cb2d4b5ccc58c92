package models

import (
	"strings"
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// TargetType names what a flag request points at.
type TargetType string

const (
	TargetNGO      TargetType = "ngo"
	TargetCampaign TargetType = "campaign"
)

// ParseTargetType validates a target type string.
func ParseTargetType(raw string) (TargetType, error) {
	switch t := TargetType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TargetNGO, TargetCampaign:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown flag target type")
	}
}

// RequestStatus is the moderation lifecycle of a flag request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// FlagRequest is a contributor's petition to flag an NGO or campaign.
// At most one pending request per (TargetType, TargetID, RequestedBy).
type FlagRequest struct {
	ID          id.FlagRequestID `json:"id"`
	TargetType  TargetType       `json:"target_type"`
	TargetID    string           `json:"target_id"`
	TargetName  string           `json:"target_name,omitempty"`
	Reason      string           `json:"reason"`
	Status      RequestStatus    `json:"status"`
	RequestedBy id.ActorID       `json:"requested_by"`
	ResolvedBy  id.ActorID       `json:"resolved_by,omitzero"`
	ResolvedAt  *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ListFilter narrows admin queue listings. Zero values match everything.
type ListFilter struct {
	Status     RequestStatus
	TargetType TargetType
}
