// internal/services/poll_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
)

type PollServiceTestSuite struct {
	suite.Suite
	store   *memStore
	service *PollService

	property *models.TokenizedProperty
	group    *models.InvestmentGroup
	holder   uuid.UUID
}

func (s *PollServiceTestSuite) SetupTest() {
	s.store = newMemStore()
	s.service = NewPollService(s.store, s.store, testConfig())

	s.property = s.store.addProperty("1000", models.PropertyStatusMinted)
	s.group = s.store.addGroup(s.property.ID)
	s.holder = uuid.New()
	s.store.addHolding(s.property.ID, s.holder, "100")
}

func (s *PollServiceTestSuite) baseRequest() *CreatePollRequest {
	return &CreatePollRequest{
		InvestmentGroupID: s.group.ID,
		PollType:          models.PollTypeSimple,
		Title:             "Repaint the facade",
		VotingPowerBasis:  models.VotingPowerBasisTokens,
	}
}

func (s *PollServiceTestSuite) TestCreatePollDefaults() {
	before := time.Now()
	poll, err := s.service.CreatePoll(context.Background(), s.holder, s.baseRequest())
	s.Require().NoError(err)

	s.Equal(models.PollStatusActive, poll.Status)
	s.Equal(s.property.ID, poll.PropertyID)
	s.Equal(s.holder, poll.CreatorID)
	s.True(poll.YesVotingPower.IsZero())
	s.True(poll.NoVotingPower.IsZero())
	s.Equal(0, poll.TotalVotesCast)

	// Default duration is one week.
	s.WithinDuration(before.Add(7*24*time.Hour), poll.EndsAt, time.Minute)
}

func (s *PollServiceTestSuite) TestNonHolderCannotCreatePoll() {
	_, err := s.service.CreatePoll(context.Background(), uuid.New(), s.baseRequest())
	s.Require().Error(err)
	s.True(apperrors.IsNotEligible(err))
}

func (s *PollServiceTestSuite) TestZeroBalanceHolderCannotCreatePoll() {
	emptied := uuid.New()
	s.store.addHolding(s.property.ID, emptied, "0")

	_, err := s.service.CreatePoll(context.Background(), emptied, s.baseRequest())
	s.Require().Error(err)
	s.True(apperrors.IsNotEligible(err))
}

func (s *PollServiceTestSuite) TestBuyoutProposalRequiresPriceAndThreshold() {
	req := s.baseRequest()
	req.PollType = models.PollTypeBuyoutProposal

	_, err := s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))

	price := mustDecimal("250000")
	threshold := mustDecimal("120")
	req.BuyoutPrice = &price
	req.MinBuyoutPercentage = &threshold
	_, err = s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))

	threshold = mustDecimal("75")
	req.MinBuyoutPercentage = &threshold
	poll, err := s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().NoError(err)
	s.True(poll.CurrentBuyoutVotes.IsZero())
}

func (s *PollServiceTestSuite) TestConsensusThresholdBounds() {
	req := s.baseRequest()
	req.RequiresConsensus = true
	req.ConsensusThreshold = mustDecimal("101")

	_, err := s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))

	req.ConsensusThreshold = decimal.Zero
	_, err = s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *PollServiceTestSuite) TestPastEndTimeRejected() {
	req := s.baseRequest()
	past := time.Now().Add(-time.Hour)
	req.EndsAt = &past

	_, err := s.service.CreatePoll(context.Background(), s.holder, req)
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *PollServiceTestSuite) TestGetPollAppliesLazyExpiry() {
	poll, err := s.service.CreatePoll(context.Background(), s.holder, s.baseRequest())
	s.Require().NoError(err)

	poll.EndsAt = time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.UpdatePoll(context.Background(), poll))

	fetched, err := s.service.GetPoll(context.Background(), poll.ID)
	s.Require().NoError(err)
	s.Equal(models.PollStatusExpired, fetched.Status)

	stored, err := s.store.GetPoll(context.Background(), poll.ID)
	s.Require().NoError(err)
	s.Equal(models.PollStatusExpired, stored.Status)
}

func (s *PollServiceTestSuite) TestExpirePollsSweep() {
	stale, err := s.service.CreatePoll(context.Background(), s.holder, s.baseRequest())
	s.Require().NoError(err)
	stale.EndsAt = time.Now().Add(-time.Minute)
	s.Require().NoError(s.store.UpdatePoll(context.Background(), stale))

	fresh, err := s.service.CreatePoll(context.Background(), s.holder, s.baseRequest())
	s.Require().NoError(err)

	expired, err := s.service.ExpirePolls(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(1), expired)

	current, err := s.store.GetPoll(context.Background(), fresh.ID)
	s.Require().NoError(err)
	s.Equal(models.PollStatusActive, current.Status)
}

func (s *PollServiceTestSuite) TestListPollsUnknownGroup() {
	_, _, err := s.service.ListPolls(context.Background(), uuid.New(), 0, 20)
	s.Require().Error(err)
	s.True(apperrors.IsNotFound(err))
}

func TestPollServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PollServiceTestSuite))
}
