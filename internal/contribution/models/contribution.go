package models

import (
	"strings"
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// Status tracks a contribution through the payment gateway.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PaymentMethod is the contributor-selected gateway instrument.
type PaymentMethod string

const (
	MethodCard       PaymentMethod = "card"
	MethodNetBanking PaymentMethod = "netbanking"
	MethodUPI        PaymentMethod = "upi"
	MethodWallet     PaymentMethod = "wallet"
)

// ParsePaymentMethod validates a payment method string.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw))); m {
	case MethodCard, MethodNetBanking, MethodUPI, MethodWallet:
		return m, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown payment method")
	}
}

// DonorInfo is the contributor-entered receipt identity.
type DonorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Contribution is one donation moving through initiate → confirm →
// organization decision.
//
// Amount is in minor currency units. Status covers the gateway leg;
// ApprovalStatus covers the organization's certificate decision and only
// becomes pending once the payment is confirmed.
type Contribution struct {
	ID                id.ContributionID `json:"id"`
	ContributorID     id.ActorID        `json:"contributor_id"`
	OrganizationID    id.OrganizationID `json:"organization_id"`
	CampaignID        id.CampaignID     `json:"campaign_id"`
	Amount            int64             `json:"amount"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	DonorInfo         DonorInfo         `json:"donor_info"`
	GatewayOrderRef   string            `json:"gateway_order_ref"`
	GatewayPaymentRef string            `json:"gateway_payment_ref,omitempty"`
	Status            Status            `json:"status"`
	ApprovalStatus    id.ApprovalStatus `json:"approval_status"`
	ReceiptNumber     string            `json:"receipt_number,omitempty"`
	DecisionNote      string            `json:"decision_note,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Receipt is the contributor-facing projection of a completed contribution.
type Receipt struct {
	ReceiptNumber    string    `json:"receipt_number"`
	ContributionID   string    `json:"contribution_id"`
	Amount           int64     `json:"amount"`
	PaymentMethod    string    `json:"payment_method"`
	DonorName        string    `json:"donor_name"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CampaignTitle    string    `json:"campaign_title,omitempty"`
	PaidAt           time.Time `json:"paid_at"`
}
