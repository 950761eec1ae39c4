// internal/store/gorm_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
)

// GormStore is the Postgres-backed implementation of the store interfaces.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetProperty(ctx context.Context, propertyID uuid.UUID) (*models.TokenizedProperty, error) {
	var property models.TokenizedProperty
	if err := s.db.WithContext(ctx).First(&property, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s: %w", propertyID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch property: %w", err)
	}
	return &property, nil
}

func (s *GormStore) GetInvestmentGroup(ctx context.Context, groupID uuid.UUID) (*models.InvestmentGroup, error) {
	var group models.InvestmentGroup
	if err := s.db.WithContext(ctx).Preload("Property").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("investment group %s: %w", groupID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch investment group: %w", err)
	}
	return &group, nil
}

func (s *GormStore) GetHolding(ctx context.Context, propertyID, holderID uuid.UUID) (*models.TokenHolding, error) {
	var holding models.TokenHolding
	err := s.db.WithContext(ctx).
		Where("property_id = ? AND holder_id = ?", propertyID, holderID).
		First(&holding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("holding for holder %s: %w", holderID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch holding: %w", err)
	}
	return &holding, nil
}

func (s *GormStore) ListHolders(ctx context.Context, propertyID uuid.UUID) ([]models.TokenHolding, error) {
	var holdings []models.TokenHolding
	err := s.db.WithContext(ctx).
		Where("property_id = ? AND tokens_owned > 0", propertyID).
		Order("created_at ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list holders: %w", err)
	}
	return holdings, nil
}

func (s *GormStore) ListHoldingsPage(ctx context.Context, propertyID uuid.UUID, offset, limit int) ([]models.TokenHolding, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.TokenHolding{}).
		Where("property_id = ? AND tokens_owned > 0", propertyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count holdings: %w", err)
	}

	var holdings []models.TokenHolding
	if err := query.Order("tokens_owned DESC").Offset(offset).Limit(limit).Find(&holdings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch holdings: %w", err)
	}
	return holdings, total, nil
}

func (s *GormStore) ApplyDelta(ctx context.Context, propertyID, holderID uuid.UUID, delta, pricePerToken decimal.Decimal) (*models.TokenHolding, error) {
	var holding *models.TokenHolding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		holding, err = applyDeltaTx(tx, propertyID, holderID, delta, pricePerToken)
		return err
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

func (s *GormStore) Transfer(ctx context.Context, propertyID, fromID, toID uuid.UUID, quantity, pricePerToken decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("transfer quantity must be positive: %w", apperrors.ErrInvalidState)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := applyDeltaTx(tx, propertyID, fromID, quantity.Neg(), pricePerToken); err != nil {
			return err
		}
		_, err := applyDeltaTx(tx, propertyID, toID, quantity, pricePerToken)
		return err
	})
}

// applyDeltaTx holds the property row lock for the whole check-and-update,
// which makes the supply invariant a single atomic compare-and-update even
// under concurrent mutations on other holders.
func applyDeltaTx(tx *gorm.DB, propertyID, holderID uuid.UUID, delta, pricePerToken decimal.Decimal) (*models.TokenHolding, error) {
	var property models.TokenizedProperty
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&property, "id = ?", propertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property %s: %w", propertyID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock property: %w", err)
	}

	now := time.Now()
	var holding models.TokenHolding
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ? AND holder_id = ?", propertyID, holderID).
		First(&holding).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !delta.IsPositive() {
			return nil, fmt.Errorf("holder %s has no holding: %w", holderID, apperrors.ErrInsufficientBalance)
		}
		holding = models.TokenHolding{
			PropertyID:            propertyID,
			HolderID:              holderID,
			TokensOwned:           decimal.Zero,
			PurchasePricePerToken: pricePerToken,
			AcquisitionDate:       now,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to lock holding: %w", err)
	}

	newBalance := holding.TokensOwned.Add(delta)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("balance %s, delta %s: %w",
			holding.TokensOwned, delta, apperrors.ErrInsufficientBalance)
	}

	if delta.IsPositive() {
		var totalHeld decimal.Decimal
		if err := tx.Model(&models.TokenHolding{}).
			Where("property_id = ?", propertyID).
			Select("COALESCE(SUM(tokens_owned), 0)").
			Scan(&totalHeld).Error; err != nil {
			return nil, fmt.Errorf("failed to sum holdings: %w", err)
		}
		if totalHeld.Add(delta).GreaterThan(property.TotalSupply) {
			return nil, fmt.Errorf("supply %s, held %s, delta %s: %w",
				property.TotalSupply, totalHeld, delta, apperrors.ErrSupplyExceeded)
		}
		holding.PurchasePricePerToken = pricePerToken
		holding.AcquisitionDate = now
	}

	// Zero balances are kept for audit, never deleted.
	holding.TokensOwned = newBalance
	if err := tx.Save(&holding).Error; err != nil {
		return nil, fmt.Errorf("failed to save holding: %w", err)
	}
	return &holding, nil
}

func (s *GormStore) CreateFromHoldings(ctx context.Context, propertyID uuid.UUID, fn func(holders []models.TokenHolding) (*models.RevenueDistribution, error)) (*models.RevenueDistribution, error) {
	var dist *models.RevenueDistribution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The property lock serializes the holder snapshot against
		// concurrent transfers, which take the same lock.
		var property models.TokenizedProperty
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&property, "id = ?", propertyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("property %s: %w", propertyID, apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to lock property: %w", err)
		}

		var holders []models.TokenHolding
		if err := tx.Where("property_id = ? AND tokens_owned > 0", propertyID).
			Order("created_at ASC").
			Find(&holders).Error; err != nil {
			return fmt.Errorf("failed to snapshot holders: %w", err)
		}

		built, err := fn(holders)
		if err != nil {
			return err
		}
		if err := tx.Create(built).Error; err != nil {
			return fmt.Errorf("failed to create distribution: %w", err)
		}
		dist = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

func (s *GormStore) GetDistribution(ctx context.Context, distributionID uuid.UUID) (*models.RevenueDistribution, error) {
	var dist models.RevenueDistribution
	if err := s.db.WithContext(ctx).First(&dist, "id = ?", distributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("distribution %s: %w", distributionID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch distribution: %w", err)
	}
	return &dist, nil
}

func (s *GormStore) UpdateDistribution(ctx context.Context, dist *models.RevenueDistribution) error {
	if err := s.db.WithContext(ctx).Save(dist).Error; err != nil {
		return fmt.Errorf("failed to update distribution: %w", err)
	}
	return nil
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.DividendPayment) error {
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (s *GormStore) GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.DividendPayment, error) {
	var payment models.DividendPayment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment %s: %w", paymentID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

func (s *GormStore) GetPaymentByHolder(ctx context.Context, distributionID, holderID uuid.UUID) (*models.DividendPayment, error) {
	var payment models.DividendPayment
	err := s.db.WithContext(ctx).
		Where("distribution_id = ? AND holder_id = ?", distributionID, holderID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment for holder %s: %w", holderID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

func (s *GormStore) ListPayments(ctx context.Context, distributionID uuid.UUID) ([]models.DividendPayment, error) {
	var payments []models.DividendPayment
	err := s.db.WithContext(ctx).
		Where("distribution_id = ?", distributionID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *GormStore) UpdatePayment(ctx context.Context, payment *models.DividendPayment) error {
	if err := s.db.WithContext(ctx).Save(payment).Error; err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}

func (s *GormStore) CreatePoll(ctx context.Context, poll *models.InvestmentPoll) error {
	if err := s.db.WithContext(ctx).Create(poll).Error; err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

func (s *GormStore) GetPoll(ctx context.Context, pollID uuid.UUID) (*models.InvestmentPoll, error) {
	var poll models.InvestmentPoll
	if err := s.db.WithContext(ctx).First(&poll, "id = ?", pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("poll %s: %w", pollID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch poll: %w", err)
	}
	return &poll, nil
}

func (s *GormStore) ListPollsByGroup(ctx context.Context, groupID uuid.UUID, offset, limit int) ([]models.InvestmentPoll, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.InvestmentPoll{}).
		Where("investment_group_id = ?", groupID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count polls: %w", err)
	}

	var polls []models.InvestmentPoll
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&polls).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch polls: %w", err)
	}
	return polls, total, nil
}

func (s *GormStore) UpdatePoll(ctx context.Context, poll *models.InvestmentPoll) error {
	if err := s.db.WithContext(ctx).Save(poll).Error; err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	return nil
}

func (s *GormStore) GetVote(ctx context.Context, pollID, voterID uuid.UUID) (*models.PollVote, error) {
	var vote models.PollVote
	err := s.db.WithContext(ctx).
		Where("poll_id = ? AND voter_id = ?", pollID, voterID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vote by %s: %w", voterID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch vote: %w", err)
	}
	return &vote, nil
}

func (s *GormStore) ListVotes(ctx context.Context, pollID uuid.UUID) ([]models.PollVote, error) {
	var votes []models.PollVote
	err := s.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("voted_at ASC").
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

func (s *GormStore) CastVote(ctx context.Context, pollID, voterID uuid.UUID, fn func(poll *models.InvestmentPoll, existing *models.PollVote) (*models.PollVote, error)) (*models.InvestmentPoll, *models.PollVote, error) {
	var (
		outPoll *models.InvestmentPoll
		outVote *models.PollVote
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent casts for the same poll serialize on this lock; the
		// (poll, voter) unique index backstops duplicate rows.
		var poll models.InvestmentPoll
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&poll, "id = ?", pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("poll %s: %w", pollID, apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to lock poll: %w", err)
		}

		var existing *models.PollVote
		var current models.PollVote
		err := tx.Where("poll_id = ? AND voter_id = ?", pollID, voterID).
			First(&current).Error
		switch {
		case err == nil:
			existing = &current
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to fetch existing vote: %w", err)
		}

		vote, err := fn(&poll, existing)
		if err != nil {
			return err
		}

		if err := tx.Save(vote).Error; err != nil {
			return fmt.Errorf("failed to save vote: %w", err)
		}
		if err := tx.Save(&poll).Error; err != nil {
			return fmt.Errorf("failed to save poll: %w", err)
		}
		outPoll, outVote = &poll, vote
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outPoll, outVote, nil
}

func (s *GormStore) ExpirePolls(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.InvestmentPoll{}).
		Where("status = ? AND ends_at < ?", models.PollStatusActive, now).
		Update("status", models.PollStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire polls: %w", result.Error)
	}
	return result.RowsAffected, nil
}
