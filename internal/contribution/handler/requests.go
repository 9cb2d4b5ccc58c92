package handler

import (
	"strings"

	"givehub/internal/contribution/models"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// InitiateRequest is the HTTP request body for
// POST /contributions/campaign/{id}/initiate.
type InitiateRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	DonorName     string `json:"donor_name"`
	DonorEmail    string `json:"donor_email"`

	parsedMethod models.PaymentMethod
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *InitiateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	method, err := models.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return err
	}
	r.parsedMethod = method

	r.DonorName = strings.TrimSpace(r.DonorName)
	if len(r.DonorName) < 2 {
		return dErrors.New(dErrors.CodeValidation, "donor_name must be at least 2 characters")
	}
	r.DonorEmail = strings.TrimSpace(r.DonorEmail)
	return nil
}

// ParsedMethod returns the validated payment method.
func (r *InitiateRequest) ParsedMethod() models.PaymentMethod { return r.parsedMethod }

// ConfirmRequest is the HTTP request body for POST /contributions/{id}/confirm.
type ConfirmRequest struct {
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ConfirmRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.OrderRef = strings.TrimSpace(r.OrderRef)
	if r.OrderRef == "" {
		return dErrors.New(dErrors.CodeValidation, "order_ref is required")
	}
	r.PaymentRef = strings.TrimSpace(r.PaymentRef)
	if r.PaymentRef == "" {
		return dErrors.New(dErrors.CodeValidation, "payment_ref is required")
	}
	return nil
}

// DecideRequest is the HTTP request body for
// POST /contributions/{id}/certificate/decision.
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
