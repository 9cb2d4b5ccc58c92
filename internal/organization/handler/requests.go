package handler

import (
	"strings"

	"givehub/internal/organization/models"
	dErrors "givehub/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /ngos.
type CreateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Location string `json:"location"`
	Mission  string `json:"mission"`

	parsedCategory models.Category
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}

	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return err
	}
	r.parsedCategory = category

	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if len(r.Mission) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "mission must be at most 2000 characters")
	}
	return nil
}

// ParsedCategory returns the validated category.
func (r *CreateRequest) ParsedCategory() models.Category {
	return r.parsedCategory
}
