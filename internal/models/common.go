// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type PropertyStatus string

const (
	PropertyStatusDraft      PropertyStatus = "draft"
	PropertyStatusSaleActive PropertyStatus = "sale_active"
	PropertyStatusMinted     PropertyStatus = "minted"
	PropertyStatusCancelled  PropertyStatus = "cancelled"
)

type DistributionStatus string

const (
	DistributionStatusProcessing DistributionStatus = "processing"
	DistributionStatusCompleted  DistributionStatus = "completed"
	DistributionStatusPartial    DistributionStatus = "partial"
)

type DistributionType string

const (
	DistributionTypeRentalIncome DistributionType = "rental_income"
	DistributionTypeSaleProceeds DistributionType = "sale_proceeds"
	DistributionTypeOther        DistributionType = "other"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PollType string

const (
	PollTypeSimple         PollType = "simple"
	PollTypeBuyoutProposal PollType = "buyout_proposal"
)

type VotingPowerBasis string

const (
	VotingPowerBasisTokens    VotingPowerBasis = "tokens"
	VotingPowerBasisOnePerson VotingPowerBasis = "one_person_one_vote"
)

type PollStatus string

const (
	PollStatusActive  PollStatus = "active"
	PollStatusClosed  PollStatus = "closed"
	PollStatusExpired PollStatus = "expired"
)

type PollOutcome string

const (
	PollOutcomeApproved PollOutcome = "approved"
	PollOutcomeRejected PollOutcome = "rejected"
)

type VoteChoice string

const (
	VoteChoiceYes VoteChoice = "yes"
	VoteChoiceNo  VoteChoice = "no"
)

type LedgerEventType string

const (
	LedgerEventRevenueDistribution LedgerEventType = "revenue_distribution"
	LedgerEventTokenTransfer       LedgerEventType = "token_transfer"
	LedgerEventPollClosed          LedgerEventType = "poll_closed"
)
