package main

import (
	"context"

	campaignmodels "givehub/internal/campaign/models"
	campaignservice "givehub/internal/campaign/service"
	contributionservice "givehub/internal/contribution/service"
	moderationmodels "givehub/internal/moderation/models"
	moderationservice "givehub/internal/moderation/service"
	organizationservice "givehub/internal/organization/service"
	id "givehub/pkg/domain"
)

// campaignBackend is the union of campaign persistence methods the process
// wires: the registry service's store plus the raised counter used by the
// contribution ledger and the flag hook used by moderation. Both the memory
// and postgres stores satisfy it.
type campaignBackend interface {
	campaignservice.Store
	contributionservice.Campaigns
	SetFlagged(ctx context.Context, campaignID id.CampaignID, flagged bool, reason string) (*campaignmodels.Campaign, error)
}

// flagTargets adapts the organization and campaign stores to the moderation
// queue's target directory.
type flagTargets struct {
	orgs      organizationservice.Store
	campaigns campaignBackend
}

func newFlagTargets(orgs organizationservice.Store, campaigns campaignBackend) *flagTargets {
	return &flagTargets{orgs: orgs, campaigns: campaigns}
}

func (t *flagTargets) Find(ctx context.Context, targetType moderationmodels.TargetType, targetID string) (*moderationservice.Target, error) {
	switch targetType {
	case moderationmodels.TargetNGO:
		orgID, err := id.ParseOrganizationID(targetID)
		if err != nil {
			return nil, err
		}
		org, err := t.orgs.FindByID(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return &moderationservice.Target{ID: org.ID.String(), Name: org.Name, Flagged: org.Flagged}, nil
	default:
		campaignID, err := id.ParseCampaignID(targetID)
		if err != nil {
			return nil, err
		}
		campaign, err := t.campaigns.FindCampaign(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		return &moderationservice.Target{ID: campaign.ID.String(), Name: campaign.Title, Flagged: campaign.Flagged}, nil
	}
}

func (t *flagTargets) SetFlagged(ctx context.Context, targetType moderationmodels.TargetType, targetID string, flagged bool, reason string) error {
	switch targetType {
	case moderationmodels.TargetNGO:
		orgID, err := id.ParseOrganizationID(targetID)
		if err != nil {
			return err
		}
		_, err = t.orgs.SetFlagged(ctx, orgID, flagged, reason)
		return err
	default:
		campaignID, err := id.ParseCampaignID(targetID)
		if err != nil {
			return err
		}
		_, err = t.campaigns.SetFlagged(ctx, campaignID, flagged, reason)
		return err
	}
}

// orgDirectory resolves organization display names for certificates and
// receipts.
type orgDirectory struct {
	orgs organizationservice.Store
}

func newOrgDirectory(orgs organizationservice.Store) *orgDirectory {
	return &orgDirectory{orgs: orgs}
}

func (d *orgDirectory) OrganizationName(ctx context.Context, orgID id.OrganizationID) (string, error) {
	org, err := d.orgs.FindByID(ctx, orgID)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}
