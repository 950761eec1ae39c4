// internal/services/poll_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/models"
	"github.com/propshare/propshare-backend/internal/store"
)

// Polls run for a week unless the creator picks an end time.
const defaultPollDuration = 7 * 24 * time.Hour

type PollService struct {
	store    store.PollStore
	holdings store.HoldingsStore
	config   *config.Config
}

type CreatePollRequest struct {
	InvestmentGroupID       uuid.UUID               `json:"investment_group_id" validate:"required"`
	PollType                models.PollType         `json:"poll_type" validate:"required,oneof=simple buyout_proposal"`
	Title                   string                  `json:"title" validate:"required,min=3,max=255"`
	Description             string                  `json:"description"`
	VotingPowerBasis        models.VotingPowerBasis `json:"voting_power_basis" validate:"required,oneof=tokens one_person_one_vote"`
	RequiresConsensus       bool                    `json:"requires_consensus"`
	ConsensusThreshold      decimal.Decimal         `json:"consensus_threshold"`
	MinParticipationPercent decimal.Decimal         `json:"min_participation_percent"`
	AllowVoteChanges        bool                    `json:"allow_vote_changes"`
	BuyoutPrice             *decimal.Decimal        `json:"buyout_price,omitempty"`
	MinBuyoutPercentage     *decimal.Decimal        `json:"min_buyout_percentage,omitempty"`
	EndsAt                  *time.Time              `json:"ends_at,omitempty"`
}

func NewPollService(store store.PollStore, holdings store.HoldingsStore, config *config.Config) *PollService {
	return &PollService{
		store:    store,
		holdings: holdings,
		config:   config,
	}
}

// CreatePoll opens a poll for a property's investment group. Only current
// holders may create one. The voting-power basis and all thresholds are
// snapshotted here; later supply or holder changes never alter them.
func (s *PollService) CreatePoll(ctx context.Context, creatorID uuid.UUID, req *CreatePollRequest) (*models.InvestmentPoll, error) {
	group, err := s.holdings.GetInvestmentGroup(ctx, req.InvestmentGroupID)
	if err != nil {
		return nil, err
	}

	holding, err := s.holdings.GetHolding(ctx, group.PropertyID, creatorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("creator %s: %w", creatorID, apperrors.ErrNotEligible)
		}
		return nil, err
	}
	if !holding.TokensOwned.IsPositive() {
		return nil, fmt.Errorf("creator %s: %w", creatorID, apperrors.ErrNotEligible)
	}

	if req.PollType == models.PollTypeBuyoutProposal {
		if req.BuyoutPrice == nil || !req.BuyoutPrice.IsPositive() {
			return nil, fmt.Errorf("buyout proposal requires a positive buyout price: %w", apperrors.ErrInvalidState)
		}
		if req.MinBuyoutPercentage == nil || !req.MinBuyoutPercentage.IsPositive() ||
			req.MinBuyoutPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("buyout proposal requires a threshold in (0, 100]: %w", apperrors.ErrInvalidState)
		}
	}

	if req.RequiresConsensus {
		if !req.ConsensusThreshold.IsPositive() || req.ConsensusThreshold.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("consensus threshold must be in (0, 100]: %w", apperrors.ErrInvalidState)
		}
	}

	endsAt := time.Now().Add(defaultPollDuration)
	if req.EndsAt != nil {
		if req.EndsAt.Before(time.Now()) {
			return nil, fmt.Errorf("poll end time is in the past: %w", apperrors.ErrInvalidState)
		}
		endsAt = *req.EndsAt
	}

	poll := &models.InvestmentPoll{
		InvestmentGroupID:       group.ID,
		PropertyID:              group.PropertyID,
		CreatorID:               creatorID,
		PollType:                req.PollType,
		Title:                   req.Title,
		Description:             req.Description,
		VotingPowerBasis:        req.VotingPowerBasis,
		RequiresConsensus:       req.RequiresConsensus,
		ConsensusThreshold:      req.ConsensusThreshold,
		MinParticipationPercent: req.MinParticipationPercent,
		AllowVoteChanges:        req.AllowVoteChanges,
		BuyoutPrice:             req.BuyoutPrice,
		MinBuyoutPercentage:     req.MinBuyoutPercentage,
		CurrentBuyoutVotes:      decimal.Zero,
		YesVotingPower:          decimal.Zero,
		NoVotingPower:           decimal.Zero,
		Status:                  models.PollStatusActive,
		EndsAt:                  endsAt,
	}

	if err := s.store.CreatePoll(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

// GetPoll applies lazy expiry: an active poll read past its end time is
// transitioned to expired before it is returned.
func (s *PollService) GetPoll(ctx context.Context, pollID uuid.UUID) (*models.InvestmentPoll, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if poll.Status == models.PollStatusActive && time.Now().After(poll.EndsAt) {
		poll.Status = models.PollStatusExpired
		if err := s.store.UpdatePoll(ctx, poll); err != nil {
			return nil, err
		}
	}

	return poll, nil
}

func (s *PollService) ListPolls(ctx context.Context, groupID uuid.UUID, offset, limit int) ([]models.InvestmentPoll, int64, error) {
	if _, err := s.holdings.GetInvestmentGroup(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.store.ListPollsByGroup(ctx, groupID, offset, limit)
}

func (s *PollService) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.PollVote, error) {
	if _, err := s.store.GetPoll(ctx, pollID); err != nil {
		return nil, err
	}
	return s.store.ListVotes(ctx, pollID)
}

// ExpirePolls sweeps active polls past their end time. Expiry is also
// applied lazily on reads and votes; the sweep exists so abandoned polls
// reach their terminal state without traffic.
func (s *PollService) ExpirePolls(ctx context.Context) (int64, error) {
	return s.store.ExpirePolls(ctx, time.Now())
}
