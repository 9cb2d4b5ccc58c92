package models

import (
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// Channel identifies which contribution workflow produced a certificate.
type Channel string

const (
	ChannelDonation          Channel = "donation"
	ChannelOpportunity       Channel = "opportunity"
	ChannelCampaignVolunteer Channel = "campaign-volunteer"
)

// Status of an issued certificate.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Metadata carries the display fields the external renderer consumes.
// The issuer stores data only; markup is someone else's problem.
type Metadata struct {
	OrganizationName string `json:"organization_name,omitempty"`
	CampaignTitle    string `json:"campaign_title,omitempty"`
	OpportunityTitle string `json:"opportunity_title,omitempty"`
	Amount           int64  `json:"amount,omitempty"`
	ActivityHours    int    `json:"activity_hours,omitempty"`
}

// Certificate is a uniqueness-guarded proof-of-contribution record.
//
// Invariants:
//   - at most one active certificate per (SourceChannel, SourceRecordID)
//   - immutable once issued except Status and DeliveredAt
type Certificate struct {
	ID             id.CertificateID  `json:"id"`
	ActorID        id.ActorID        `json:"actor_id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	SourceChannel  Channel           `json:"source_channel"`
	SourceRecordID string            `json:"source_record_id"`
	Status         Status            `json:"status"`
	Metadata       Metadata          `json:"metadata"`
	IssuedAt       time.Time         `json:"issued_at"`
	DeliveredAt    *time.Time        `json:"delivered_at,omitempty"`
}

// IssueRequest is the issuer input shared by the three trackers.
type IssueRequest struct {
	ActorID        id.ActorID
	OrganizationID id.OrganizationID
	SourceChannel  Channel
	SourceRecordID string
	Metadata       Metadata
}

// Validate enforces the issuer's input invariants.
func (r IssueRequest) Validate() error {
	if r.ActorID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate actor is required")
	}
	if r.OrganizationID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate organization is required")
	}
	switch r.SourceChannel {
	case ChannelDonation, ChannelOpportunity, ChannelCampaignVolunteer:
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown certificate source channel")
	}
	if r.SourceRecordID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate source record is required")
	}
	return nil
}
