// internal/store/store.go
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propshare/propshare-backend/internal/models"
)

// The stores are the only components that touch gorm. Services receive these
// interfaces so they can be unit-tested against in-memory doubles.

type HoldingsStore interface {
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*models.TokenizedProperty, error)
	GetInvestmentGroup(ctx context.Context, groupID uuid.UUID) (*models.InvestmentGroup, error)

	// GetHolding returns the holding row including zero balances, or
	// apperrors.ErrNotFound when no row exists.
	GetHolding(ctx context.Context, propertyID, holderID uuid.UUID) (*models.TokenHolding, error)

	// ListHolders returns holdings with tokensOwned > 0.
	ListHolders(ctx context.Context, propertyID uuid.UUID) ([]models.TokenHolding, error)

	ListHoldingsPage(ctx context.Context, propertyID uuid.UUID, offset, limit int) ([]models.TokenHolding, int64, error)

	// ApplyDelta atomically adjusts tokensOwned for one holder. The supply
	// check and the balance check happen under the same lock as the update.
	// A missing holding row is created when the delta is positive.
	ApplyDelta(ctx context.Context, propertyID, holderID uuid.UUID, delta, pricePerToken decimal.Decimal) (*models.TokenHolding, error)

	// Transfer moves tokens between two holders of a property as a single
	// transaction: both deltas apply or neither does.
	Transfer(ctx context.Context, propertyID, fromID, toID uuid.UUID, quantity, pricePerToken decimal.Decimal) error
}

type DistributionStore interface {
	// CreateFromHoldings enumerates the property's positive holdings and
	// persists the distribution row built by fn inside one transaction, so
	// a concurrent transfer cannot split the snapshot.
	CreateFromHoldings(ctx context.Context, propertyID uuid.UUID, fn func(holders []models.TokenHolding) (*models.RevenueDistribution, error)) (*models.RevenueDistribution, error)

	GetDistribution(ctx context.Context, distributionID uuid.UUID) (*models.RevenueDistribution, error)
	UpdateDistribution(ctx context.Context, dist *models.RevenueDistribution) error

	CreatePayment(ctx context.Context, payment *models.DividendPayment) error
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.DividendPayment, error)
	GetPaymentByHolder(ctx context.Context, distributionID, holderID uuid.UUID) (*models.DividendPayment, error)
	ListPayments(ctx context.Context, distributionID uuid.UUID) ([]models.DividendPayment, error)
	UpdatePayment(ctx context.Context, payment *models.DividendPayment) error
}

type PollStore interface {
	CreatePoll(ctx context.Context, poll *models.InvestmentPoll) error
	GetPoll(ctx context.Context, pollID uuid.UUID) (*models.InvestmentPoll, error)
	ListPollsByGroup(ctx context.Context, groupID uuid.UUID, offset, limit int) ([]models.InvestmentPoll, int64, error)
	UpdatePoll(ctx context.Context, poll *models.InvestmentPoll) error

	GetVote(ctx context.Context, pollID, voterID uuid.UUID) (*models.PollVote, error)
	ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.PollVote, error)

	// CastVote runs fn with the locked poll and the voter's existing vote
	// (nil when none) and persists the returned vote row together with any
	// poll mutation fn made, all in one transaction. Concurrent casts for
	// the same voter serialize on the poll lock and the (poll, voter)
	// unique index, so duplicate rows cannot exist.
	CastVote(ctx context.Context, pollID, voterID uuid.UUID, fn func(poll *models.InvestmentPoll, existing *models.PollVote) (*models.PollVote, error)) (*models.InvestmentPoll, *models.PollVote, error)

	// ExpirePolls transitions active polls with endsAt before now to
	// expired and returns how many rows changed.
	ExpirePolls(ctx context.Context, now time.Time) (int64, error)
}
