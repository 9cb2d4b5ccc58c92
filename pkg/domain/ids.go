// Package domain defines the typed identifiers and shared value types used
// across the workflow engine. Typed UUIDs prevent cross-entity assignment at
// compile time: a CampaignID can never be passed where a ContributionID is
// expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "givehub/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct type so the compiler enforces
// entity boundaries.
type (
	// ActorID identifies an authenticated contributor, organization owner,
	// or admin. Identity is supplied by the external actor directory.
	ActorID uuid.UUID

	// OrganizationID identifies a beneficiary organization.
	OrganizationID uuid.UUID

	// CampaignID identifies a fundraising/volunteering campaign.
	CampaignID uuid.UUID

	// OpportunityID identifies a standalone volunteer opportunity.
	OpportunityID uuid.UUID

	// ContributionID identifies a monetary contribution.
	ContributionID uuid.UUID

	// ApplicationID identifies an opportunity application.
	ApplicationID uuid.UUID

	// CertificateID identifies an issued certificate.
	CertificateID uuid.UUID

	// FlagRequestID identifies a moderation flag request.
	FlagRequestID uuid.UUID
)

func (id ActorID) String() string        { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id CampaignID) String() string     { return uuid.UUID(id).String() }
func (id OpportunityID) String() string  { return uuid.UUID(id).String() }
func (id ContributionID) String() string { return uuid.UUID(id).String() }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id CertificateID) String() string  { return uuid.UUID(id).String() }
func (id FlagRequestID) String() string  { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CampaignID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id OpportunityID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ContributionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id FlagRequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// The text codecs keep JSON and log output in canonical UUID form.
func (id ActorID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id OrganizationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id CampaignID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id OpportunityID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ContributionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ApplicationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id CertificateID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id FlagRequestID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OrganizationID) UnmarshalText(b []byte) error {
	parsed, err := ParseOrganizationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CampaignID) UnmarshalText(b []byte) error {
	parsed, err := ParseCampaignID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OpportunityID) UnmarshalText(b []byte) error {
	parsed, err := ParseOpportunityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ContributionID) UnmarshalText(b []byte) error {
	parsed, err := ParseContributionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	parsed, err := ParseApplicationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CertificateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCertificateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FlagRequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseFlagRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID enforces the parsing invariant shared by all typed IDs:
// the input must be a valid, non-nil UUID. This runs at trust boundaries
// (path params, request bodies), so it must reject junk outright.
func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if len(raw) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is malformed")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is malformed")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return parsed, nil
}

func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parseUUID(raw, "actor id")
	return ActorID(parsed), err
}

func ParseOrganizationID(raw string) (OrganizationID, error) {
	parsed, err := parseUUID(raw, "organization id")
	return OrganizationID(parsed), err
}

func ParseCampaignID(raw string) (CampaignID, error) {
	parsed, err := parseUUID(raw, "campaign id")
	return CampaignID(parsed), err
}

func ParseOpportunityID(raw string) (OpportunityID, error) {
	parsed, err := parseUUID(raw, "opportunity id")
	return OpportunityID(parsed), err
}

func ParseContributionID(raw string) (ContributionID, error) {
	parsed, err := parseUUID(raw, "contribution id")
	return ContributionID(parsed), err
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw, "application id")
	return ApplicationID(parsed), err
}

func ParseCertificateID(raw string) (CertificateID, error) {
	parsed, err := parseUUID(raw, "certificate id")
	return CertificateID(parsed), err
}

func ParseFlagRequestID(raw string) (FlagRequestID, error) {
	parsed, err := parseUUID(raw, "flag request id")
	return FlagRequestID(parsed), err
}
