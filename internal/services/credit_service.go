// internal/services/credit_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"
	"gorm.io/gorm"

	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/models"
)

// AccountCreditor credits a holder's account with a dividend net amount and
// returns the processor's reference for the transfer. Credits must be
// idempotent on the supplied key so a retried payment never pays twice.
type AccountCreditor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, idempotencyKey string) (string, error)
}

type CreditService struct {
	db     *gorm.DB
	config *config.Config
}

func NewCreditService(db *gorm.DB, config *config.Config) *CreditService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &CreditService{
		db:     db,
		config: config,
	}
}

func (s *CreditService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency, idempotencyKey string) (string, error) {
	if !amount.IsPositive() {
		return "", errors.New("credit amount must be positive")
	}

	var account models.PayoutAccount
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("no payout account on file for holder %s", userID)
		}
		return "", fmt.Errorf("failed to look up payout account: %w", err)
	}

	// Stripe amounts are minor units.
	amountInCents := amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amountInCents),
		Currency:    stripe.String(currency),
		Destination: stripe.String(account.StripeAccountID),
	}
	params.IdempotencyKey = stripe.String(idempotencyKey)
	params.AddMetadata("holder_id", userID.String())

	t, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe transfer failed: %w", err)
	}

	return t.ID, nil
}
