// internal/models/poll.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentPoll is a governance poll scoped to one property's investment
// group. Voting-power basis and thresholds are snapshotted at creation and
// never recomputed from later supply or holder changes.
type InvestmentPoll struct {
	BaseModel
	InvestmentGroupID       uuid.UUID        `json:"investment_group_id" gorm:"type:uuid;not null;index"`
	PropertyID              uuid.UUID        `json:"property_id" gorm:"type:uuid;not null;index"`
	CreatorID               uuid.UUID        `json:"creator_id" gorm:"type:uuid;not null;index"`
	PollType                PollType         `json:"poll_type" gorm:"type:varchar(20);not null"`
	Title                   string           `json:"title" gorm:"size:255;not null"`
	Description             string           `json:"description" gorm:"type:text"`
	VotingPowerBasis        VotingPowerBasis `json:"voting_power_basis" gorm:"type:varchar(25);not null"`
	RequiresConsensus       bool             `json:"requires_consensus" gorm:"default:false"`
	ConsensusThreshold      decimal.Decimal  `json:"consensus_threshold" gorm:"type:decimal(6,2)"`
	MinParticipationPercent decimal.Decimal  `json:"min_participation_percent" gorm:"type:decimal(6,2);default:0"`
	AllowVoteChanges        bool             `json:"allow_vote_changes" gorm:"default:false"`

	// Buyout proposal fields
	BuyoutPrice         *decimal.Decimal `json:"buyout_price,omitempty" gorm:"type:decimal(18,2)"`
	MinBuyoutPercentage *decimal.Decimal `json:"min_buyout_percentage,omitempty" gorm:"type:decimal(6,2)"`
	CurrentBuyoutVotes  decimal.Decimal  `json:"current_buyout_votes" gorm:"type:decimal(10,4);default:0"`

	// Running tallies, maintained by differencing so vote changes never
	// double count. Each equals the same figure recomputed from the poll's
	// vote rows.
	YesVotingPower decimal.Decimal `json:"yes_voting_power" gorm:"type:decimal(10,4);default:0"`
	NoVotingPower  decimal.Decimal `json:"no_voting_power" gorm:"type:decimal(10,4);default:0"`
	TotalVotesCast int             `json:"total_votes_cast" gorm:"default:0"`

	Status   PollStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	Outcome  *PollOutcome `json:"outcome,omitempty" gorm:"type:varchar(20)"`
	EndsAt   time.Time    `json:"ends_at" gorm:"not null;index"`
	ClosedAt *time.Time   `json:"closed_at"`

	InvestmentGroup InvestmentGroup `json:"investment_group,omitempty" gorm:"foreignKey:InvestmentGroupID"`
	Votes           []PollVote      `json:"votes,omitempty" gorm:"foreignKey:PollID"`
}

// PollVote holds one voter's current ballot. A voter has at most one row per
// poll; vote changes update the row in place. VotingPower is computed
// server-side from holdings at vote time and is never client-supplied.
type PollVote struct {
	BaseModel
	PollID      uuid.UUID       `json:"poll_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_poll_voter"`
	VoterID     uuid.UUID       `json:"voter_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_votes_poll_voter"`
	Vote        VoteChoice      `json:"vote" gorm:"type:varchar(3);not null"`
	VotingPower decimal.Decimal `json:"voting_power" gorm:"type:decimal(10,4);not null"`
	VotedAt     time.Time       `json:"voted_at" gorm:"not null"`

	Poll InvestmentPoll `json:"poll,omitempty" gorm:"foreignKey:PollID"`
}
