package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	campaignmodels "givehub/internal/campaign/models"
	certmodels "givehub/internal/certificate/models"
	"givehub/internal/contribution/models"
	"givehub/internal/contribution/service/mocks"
	id "givehub/pkg/domain"
	dErrors "givehub/pkg/domain-errors"
	"givehub/pkg/platform/sentinel"
	"givehub/pkg/requestcontext"
)

type ContributionServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	campaigns *mocks.MockCampaigns
	issuer    *mocks.MockIssuer
	directory *mocks.MockDirectory
	service   *Service

	actorID id.ActorID
	orgID   id.OrganizationID
	now     time.Time
	ctx     context.Context
}

func TestContributionServiceSuite(t *testing.T) {
	suite.Run(t, new(ContributionServiceSuite))
}

func (s *ContributionServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.campaigns = mocks.NewMockCampaigns(s.ctrl)
	s.issuer = mocks.NewMockIssuer(s.ctrl)
	s.directory = mocks.NewMockDirectory(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, s.campaigns, s.issuer, s.directory, logger)

	s.actorID = id.ActorID(uuid.New())
	s.orgID = id.OrganizationID(s.actorID)
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithActor(context.Background(), s.actorID, id.RoleContributor)
	s.ctx = requestcontext.WithTime(ctx, s.now)
}

func (s *ContributionServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ContributionServiceSuite) completed(campaignID id.CampaignID) *models.Contribution {
	return &models.Contribution{
		ID:              id.ContributionID(uuid.New()),
		ContributorID:   s.actorID,
		OrganizationID:  s.orgID,
		CampaignID:      campaignID,
		Amount:          5000,
		PaymentMethod:   models.MethodUPI,
		DonorInfo:       models.DonorInfo{Name: "Asha Rao"},
		GatewayOrderRef: "order_abc",
		Status:          models.StatusCompleted,
		ApprovalStatus:  id.ApprovalPending,
		ReceiptNumber:   "RCP-00000001",
		CreatedAt:       s.now,
		UpdatedAt:       s.now,
	}
}

func (s *ContributionServiceSuite) TestInitiate() {
	campaignID := id.CampaignID(uuid.New())

	s.Run("non-positive amount rejected", func() {
		_, err := s.service.Initiate(s.ctx, campaignID, InitiateRequest{Amount: 0})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("unknown campaign rejected", func() {
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), campaignID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Initiate(s.ctx, campaignID, InitiateRequest{Amount: 100, PaymentMethod: models.MethodCard})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("campaign closed to funding rejected", func() {
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), campaignID).
			Return(&campaignmodels.Campaign{ID: campaignID, AcceptsFunding: false}, nil)
		_, err := s.service.Initiate(s.ctx, campaignID, InitiateRequest{Amount: 100, PaymentMethod: models.MethodCard})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("opens pending contribution with order ref", func() {
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), campaignID).
			Return(&campaignmodels.Campaign{ID: campaignID, OrganizationID: s.orgID, AcceptsFunding: true}, nil)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		c, err := s.service.Initiate(s.ctx, campaignID, InitiateRequest{
			Amount:        100,
			PaymentMethod: models.MethodCard,
			DonorInfo:     models.DonorInfo{Name: "Asha Rao"},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, c.Status)
		s.Equal(id.ApprovalNone, c.ApprovalStatus)
		s.Equal(s.orgID, c.OrganizationID)
		s.True(strings.HasPrefix(c.GatewayOrderRef, "order_"))
		s.Empty(c.ReceiptNumber)
	})
}

func (s *ContributionServiceSuite) TestConfirm() {
	s.Run("missing references rejected", func() {
		_, err := s.service.Confirm(s.ctx, id.ContributionID(uuid.New()), "", "pay_1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("applying confirm moves the raised counter", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		s.store.EXPECT().Confirm(gomock.Any(), c.ID, "order_abc", "pay_1", s.now).Return(c, true, nil)
		s.campaigns.EXPECT().AddRaised(gomock.Any(), c.CampaignID, c.Amount).Return(nil)

		got, err := s.service.Confirm(s.ctx, c.ID, "order_abc", "pay_1")
		s.Require().NoError(err)
		s.Equal(c.ReceiptNumber, got.ReceiptNumber)
	})

	s.Run("replayed confirm leaves the counter alone", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		s.store.EXPECT().Confirm(gomock.Any(), c.ID, "order_abc", "pay_1", s.now).Return(c, false, nil)

		got, err := s.service.Confirm(s.ctx, c.ID, "order_abc", "pay_1")
		s.Require().NoError(err)
		s.Equal(c.ReceiptNumber, got.ReceiptNumber)
	})

	s.Run("order reference mismatch surfaces as validation", func() {
		contributionID := id.ContributionID(uuid.New())
		s.store.EXPECT().Confirm(gomock.Any(), contributionID, "order_forged", "pay_1", s.now).
			Return(nil, false, sentinel.ErrConflict)

		_, err := s.service.Confirm(s.ctx, contributionID, "order_forged", "pay_1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("confirm after failure already resolved", func() {
		contributionID := id.ContributionID(uuid.New())
		s.store.EXPECT().Confirm(gomock.Any(), contributionID, "order_abc", "pay_1", s.now).
			Return(nil, false, sentinel.ErrInvalidState)

		_, err := s.service.Confirm(s.ctx, contributionID, "order_abc", "pay_1")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyResolved))
	})
}

func (s *ContributionServiceSuite) TestDecide() {
	s.Run("approval issues certificate then flips status", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		cert := &certmodels.Certificate{ID: id.CertificateID(uuid.New())}

		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.directory.EXPECT().OrganizationName(gomock.Any(), s.orgID).Return("Helping Hands", nil)
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), c.CampaignID).
			Return(&campaignmodels.Campaign{ID: c.CampaignID, Title: "Tree Drive"}, nil)
		s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req certmodels.IssueRequest) (*certmodels.Certificate, bool, error) {
				s.Equal(certmodels.ChannelDonation, req.SourceChannel)
				s.Equal(c.ID.String(), req.SourceRecordID)
				s.Equal(c.Amount, req.Metadata.Amount)
				return cert, true, nil
			})
		decided := *c
		decided.ApprovalStatus = id.ApprovalApproved
		s.store.EXPECT().Decide(gomock.Any(), c.ID, id.ApprovalApproved, "thanks", s.now).Return(&decided, nil)

		got, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "thanks")
		s.Require().NoError(err)
		s.Equal(id.ApprovalApproved, got.ApprovalStatus)
	})

	s.Run("rejection never touches the issuer", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		decided := *c
		decided.ApprovalStatus = id.ApprovalRejected

		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.store.EXPECT().Decide(gomock.Any(), c.ID, id.ApprovalRejected, "no receipt", s.now).Return(&decided, nil)

		got, err := s.service.Decide(s.ctx, c.ID, id.DecisionReject, "no receipt")
		s.Require().NoError(err)
		s.Equal(id.ApprovalRejected, got.ApprovalStatus)
	})

	s.Run("another organization's contribution forbidden", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		c.OrganizationID = id.OrganizationID(uuid.New())
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("unconfirmed contribution rejected", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		c.Status = models.StatusPending
		c.ApprovalStatus = id.ApprovalNone
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("already decided contribution rejected", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		c.ApprovalStatus = id.ApprovalApproved
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyResolved))
	})
}

// A decision call that loses the status race may have issued a certificate
// the winner now depends on. The compensation must only revoke when the
// final outcome is not approved.
func (s *ContributionServiceSuite) TestDecideLostRace() {
	s.Run("winner approved keeps the certificate", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		cert := &certmodels.Certificate{ID: id.CertificateID(uuid.New())}
		final := *c
		final.ApprovalStatus = id.ApprovalApproved

		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.directory.EXPECT().OrganizationName(gomock.Any(), s.orgID).Return("Helping Hands", nil)
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), c.CampaignID).Return(nil, sentinel.ErrNotFound)
		s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(cert, true, nil)
		s.store.EXPECT().Decide(gomock.Any(), c.ID, id.ApprovalApproved, "", s.now).
			Return(nil, sentinel.ErrInvalidState)
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(&final, nil)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyResolved))
	})

	s.Run("winner rejected revokes the stray certificate", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		cert := &certmodels.Certificate{ID: id.CertificateID(uuid.New())}
		final := *c
		final.ApprovalStatus = id.ApprovalRejected

		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.directory.EXPECT().OrganizationName(gomock.Any(), s.orgID).Return("Helping Hands", nil)
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), c.CampaignID).Return(nil, sentinel.ErrNotFound)
		s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(cert, true, nil)
		s.store.EXPECT().Decide(gomock.Any(), c.ID, id.ApprovalApproved, "", s.now).
			Return(nil, sentinel.ErrInvalidState)
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(&final, nil)
		s.issuer.EXPECT().Revoke(gomock.Any(), cert.ID).Return(cert, nil)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyResolved))
	})

	s.Run("replayed issue is not revoked by the loser", func() {
		// created=false means some earlier approval owns the certificate.
		c := s.completed(id.CampaignID(uuid.New()))
		cert := &certmodels.Certificate{ID: id.CertificateID(uuid.New())}
		final := *c
		final.ApprovalStatus = id.ApprovalRejected

		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.directory.EXPECT().OrganizationName(gomock.Any(), s.orgID).Return("Helping Hands", nil)
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), c.CampaignID).Return(nil, sentinel.ErrNotFound)
		s.issuer.EXPECT().Issue(gomock.Any(), gomock.Any()).Return(cert, false, nil)
		s.store.EXPECT().Decide(gomock.Any(), c.ID, id.ApprovalApproved, "", s.now).
			Return(nil, sentinel.ErrInvalidState)

		_, err := s.service.Decide(s.ctx, c.ID, id.DecisionApprove, "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyResolved))
	})
}

func (s *ContributionServiceSuite) TestGetReceipt() {
	s.Run("owner reads enriched receipt", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)
		s.directory.EXPECT().OrganizationName(gomock.Any(), s.orgID).Return("Helping Hands", nil)
		s.campaigns.EXPECT().FindCampaign(gomock.Any(), c.CampaignID).
			Return(&campaignmodels.Campaign{ID: c.CampaignID, Title: "Tree Drive"}, nil)

		receipt, err := s.service.GetReceipt(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("RCP-00000001", receipt.ReceiptNumber)
		s.Equal("Helping Hands", receipt.OrganizationName)
		s.Equal("Tree Drive", receipt.CampaignTitle)
		s.Equal("Asha Rao", receipt.DonorName)
	})

	s.Run("other actor forbidden", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		c.ContributorID = id.ActorID(uuid.New())
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)

		_, err := s.service.GetReceipt(s.ctx, c.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))
	})

	s.Run("pending contribution has no receipt", func() {
		c := s.completed(id.CampaignID(uuid.New()))
		c.Status = models.StatusPending
		s.store.EXPECT().FindByID(gomock.Any(), c.ID).Return(c, nil)

		_, err := s.service.GetReceipt(s.ctx, c.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}
