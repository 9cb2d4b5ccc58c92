package models

import (
	"strings"
	"time"

	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
)

// Category buckets organizations for the public directory.
type Category string

const (
	CategoryEducation   Category = "education"
	CategoryHealth      Category = "health"
	CategoryEnvironment Category = "environment"
	CategoryAnimals     Category = "animals"
	CategoryCommunity   Category = "community"
	CategoryOther       Category = "other"
)

// ParseCategory validates a directory category string.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryEducation, CategoryHealth, CategoryEnvironment,
		CategoryAnimals, CategoryCommunity, CategoryOther:
		return c, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown organization category")
	}
}

// Organization is an NGO profile. Its ID is the UUID of the organization's
// actor account, so ownership checks compare it directly against the
// authenticated actor.
type Organization struct {
	ID         id.OrganizationID `json:"id"`
	Name       string            `json:"name"`
	Category   Category          `json:"category"`
	Location   string            `json:"location"`
	Mission    string            `json:"mission,omitempty"`
	Verified   bool              `json:"verified"`
	Flagged    bool              `json:"flagged"`
	FlagReason string            `json:"flag_reason,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
