package handler

import (
	"strings"

	dErrors "givehub/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for the flag-request endpoints.
type SubmitRequest struct {
	Reason string `json:"reason"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 1000 characters")
	}
	return nil
}
