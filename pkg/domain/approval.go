package domain

import dErrors "givehub/pkg/domain-errors"

// ApprovalStatus is the organization-side decision state shared by all three
// contribution channels.
//
// Transitions: none → pending (record becomes decidable) →
// approved | rejected (terminal). A terminal status never changes; the
// losing side of a decision race observes CodeAlreadyResolved.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = "none"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Terminal reports whether the status admits no further transitions.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// Decision is an organization's approve/reject verdict.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a decision value from a request body.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(raw) {
	case DecisionApprove, DecisionReject:
		return Decision(raw), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
}

// Outcome maps a decision to its terminal approval status.
func (d Decision) Outcome() ApprovalStatus {
	if d == DecisionApprove {
		return ApprovalApproved
	}
	return ApprovalRejected
}
