// internal/services/vote_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/models"
	"github.com/propshare/propshare-backend/internal/store"
)

type VoteService struct {
	store    store.PollStore
	holdings store.HoldingsStore
	ledger   LedgerRecorder
	notifier Notifier
	config   *config.Config
}

type CastVoteRequest struct {
	Vote models.VoteChoice `json:"vote" validate:"required,oneof=yes no"`
}

type CastVoteResult struct {
	VoteRecorded       bool              `json:"vote_recorded"`
	Vote               models.VoteChoice `json:"vote"`
	VotingPower        decimal.Decimal   `json:"voting_power"`
	PollStatus         models.PollStatus `json:"poll_status"`
	CurrentBuyoutVotes decimal.Decimal   `json:"current_buyout_votes"`
}

func NewVoteService(store store.PollStore, holdings store.HoldingsStore, ledger LedgerRecorder, notifier Notifier, config *config.Config) *VoteService {
	return &VoteService{
		store:    store,
		holdings: holdings,
		ledger:   ledger,
		notifier: notifier,
		config:   config,
	}
}

// CastVote records or updates the voter's ballot. Voting power is always
// computed here from current holdings; any client-supplied value is ignored.
// The vote row upsert, the tally differencing, and the closing evaluation
// run in one store transaction.
func (s *VoteService) CastVote(ctx context.Context, pollID, voterID uuid.UUID, choice models.VoteChoice) (*CastVoteResult, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	if poll.Status == models.PollStatusActive && time.Now().After(poll.EndsAt) {
		poll.Status = models.PollStatusExpired
		if err := s.store.UpdatePoll(ctx, poll); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("poll %s ended at %s: %w", pollID, poll.EndsAt.Format(time.RFC3339), apperrors.ErrPollExpired)
	}
	if poll.Status != models.PollStatusActive {
		return nil, fmt.Errorf("poll %s is %s: %w", pollID, poll.Status, apperrors.ErrInvalidState)
	}

	property, err := s.holdings.GetProperty(ctx, poll.PropertyID)
	if err != nil {
		return nil, err
	}

	voterTokens := decimal.Zero
	if holding, err := s.holdings.GetHolding(ctx, poll.PropertyID, voterID); err == nil {
		voterTokens = holding.TokensOwned
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	if !voterTokens.IsPositive() {
		return nil, fmt.Errorf("voter %s holds no tokens: %w", voterID, apperrors.ErrNotEligible)
	}

	power := s.votingPower(poll, voterTokens, property.TotalSupply)

	// Holder count for the one-person-one-vote participation floor is
	// sampled before the vote transaction; it is advisory very much like
	// the participation floor itself.
	holderCount := 0
	if poll.VotingPowerBasis == models.VotingPowerBasisOnePerson {
		holders, err := s.holdings.ListHolders(ctx, poll.PropertyID)
		if err != nil {
			return nil, err
		}
		holderCount = len(holders)
	}

	now := time.Now()
	updatedPoll, vote, err := s.store.CastVote(ctx, pollID, voterID, func(locked *models.InvestmentPoll, existing *models.PollVote) (*models.PollVote, error) {
		// Re-checked under the poll lock: a concurrent vote may have
		// closed the poll since the pre-check above.
		if locked.Status != models.PollStatusActive {
			return nil, fmt.Errorf("poll %s is %s: %w", pollID, locked.Status, apperrors.ErrInvalidState)
		}
		if now.After(locked.EndsAt) {
			return nil, fmt.Errorf("poll %s ended: %w", pollID, apperrors.ErrPollExpired)
		}

		if existing != nil && !locked.AllowVoteChanges {
			return nil, fmt.Errorf("voter %s: %w", voterID, apperrors.ErrVoteAlreadyCast)
		}

		applyTallyDelta(locked, existing, choice, power)

		var row *models.PollVote
		if existing != nil {
			existing.Vote = choice
			existing.VotingPower = power
			existing.VotedAt = now
			row = existing
		} else {
			locked.TotalVotesCast++
			row = &models.PollVote{
				PollID:      pollID,
				VoterID:     voterID,
				Vote:        choice,
				VotingPower: power,
				VotedAt:     now,
			}
		}

		s.evaluateClosing(locked, holderCount, now)
		return row, nil
	})
	if err != nil {
		return nil, err
	}

	if updatedPoll.Status == models.PollStatusClosed {
		s.recordPollClosed(ctx, updatedPoll)
	}

	return &CastVoteResult{
		VoteRecorded:       true,
		Vote:               vote.Vote,
		VotingPower:        vote.VotingPower,
		PollStatus:         updatedPoll.Status,
		CurrentBuyoutVotes: updatedPoll.CurrentBuyoutVotes,
	}, nil
}

func (s *VoteService) votingPower(poll *models.InvestmentPoll, voterTokens, totalSupply decimal.Decimal) decimal.Decimal {
	if poll.VotingPowerBasis == models.VotingPowerBasisOnePerson {
		return decimal.NewFromInt(1)
	}
	return voterTokens.
		Div(totalSupply).
		Mul(decimal.NewFromInt(100)).
		RoundBank(s.config.Distribution.PowerPrecision)
}

// applyTallyDelta nets out the voter's previous contribution before adding
// the new one, so a changed vote never double counts. The stored tallies
// always equal the same sums recomputed from the vote rows.
func applyTallyDelta(poll *models.InvestmentPoll, existing *models.PollVote, choice models.VoteChoice, power decimal.Decimal) {
	if existing != nil {
		switch existing.Vote {
		case models.VoteChoiceYes:
			poll.YesVotingPower = poll.YesVotingPower.Sub(existing.VotingPower)
			if poll.PollType == models.PollTypeBuyoutProposal {
				poll.CurrentBuyoutVotes = poll.CurrentBuyoutVotes.Sub(existing.VotingPower)
			}
		case models.VoteChoiceNo:
			poll.NoVotingPower = poll.NoVotingPower.Sub(existing.VotingPower)
		}
	}

	switch choice {
	case models.VoteChoiceYes:
		poll.YesVotingPower = poll.YesVotingPower.Add(power)
		if poll.PollType == models.PollTypeBuyoutProposal {
			poll.CurrentBuyoutVotes = poll.CurrentBuyoutVotes.Add(power)
		}
	case models.VoteChoiceNo:
		poll.NoVotingPower = poll.NoVotingPower.Add(power)
	}
}

func (s *VoteService) evaluateClosing(poll *models.InvestmentPoll, holderCount int, now time.Time) {
	switch poll.PollType {
	case models.PollTypeBuyoutProposal:
		if poll.MinBuyoutPercentage != nil &&
			poll.CurrentBuyoutVotes.GreaterThanOrEqual(*poll.MinBuyoutPercentage) {
			closePoll(poll, models.PollOutcomeApproved, now)
		}

	case models.PollTypeSimple:
		if !poll.RequiresConsensus {
			return
		}
		cast := poll.YesVotingPower.Add(poll.NoVotingPower)
		if cast.IsZero() {
			return
		}
		if !s.participationMet(poll, cast, holderCount) {
			return
		}
		ratio := poll.YesVotingPower.Div(cast).Mul(decimal.NewFromInt(100))
		if ratio.GreaterThanOrEqual(poll.ConsensusThreshold) {
			closePoll(poll, models.PollOutcomeApproved, now)
		}
	}
}

func (s *VoteService) participationMet(poll *models.InvestmentPoll, cast decimal.Decimal, holderCount int) bool {
	if !poll.MinParticipationPercent.IsPositive() {
		return true
	}

	if poll.VotingPowerBasis == models.VotingPowerBasisTokens {
		// Token-basis powers are percentages of total supply, so the cast
		// sum is directly comparable to the participation floor.
		return cast.GreaterThanOrEqual(poll.MinParticipationPercent)
	}

	if holderCount == 0 {
		return false
	}
	turnout := decimal.NewFromInt(int64(poll.TotalVotesCast)).
		Div(decimal.NewFromInt(int64(holderCount))).
		Mul(decimal.NewFromInt(100))
	return turnout.GreaterThanOrEqual(poll.MinParticipationPercent)
}

func closePoll(poll *models.InvestmentPoll, outcome models.PollOutcome, now time.Time) {
	poll.Status = models.PollStatusClosed
	poll.Outcome = &outcome
	poll.ClosedAt = &now
}

func (s *VoteService) recordPollClosed(ctx context.Context, poll *models.InvestmentPoll) {
	eventData := models.JSONB{
		"poll_id":          poll.ID.String(),
		"property_id":      poll.PropertyID.String(),
		"poll_type":        string(poll.PollType),
		"yes_voting_power": poll.YesVotingPower.String(),
		"no_voting_power":  poll.NoVotingPower.String(),
	}
	if poll.Outcome != nil {
		eventData["outcome"] = string(*poll.Outcome)
	}
	if poll.PollType == models.PollTypeBuyoutProposal {
		eventData["current_buyout_votes"] = poll.CurrentBuyoutVotes.String()
	}

	if _, err := s.ledger.RecordEvent(ctx, models.LedgerEventPollClosed, eventData); err != nil {
		logrus.WithError(err).WithField("poll_id", poll.ID).
			Warn("Poll closed but ledger recording failed")
	}

	title := "Poll closed"
	message := fmt.Sprintf("Your poll %q has closed.", poll.Title)
	if poll.Outcome != nil {
		message = fmt.Sprintf("Your poll %q has closed with outcome %s.", poll.Title, *poll.Outcome)
	}
	if err := s.notifier.Notify(ctx, poll.CreatorID, "poll_closed", title, message, models.JSONB{
		"poll_id": poll.ID.String(),
	}); err != nil {
		logrus.WithError(err).WithField("poll_id", poll.ID).
			Warn("Failed to deliver poll closed notification")
	}
}
