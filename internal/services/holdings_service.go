// internal/services/holdings_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
	"github.com/propshare/propshare-backend/internal/store"
)

type HoldingsService struct {
	store  store.HoldingsStore
	ledger LedgerRecorder
}

type TransferTokensRequest struct {
	PropertyID    uuid.UUID       `json:"property_id" validate:"required"`
	ToHolderID    uuid.UUID       `json:"to_holder_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity" validate:"required"`
	PricePerToken decimal.Decimal `json:"price_per_token"`
}

func NewHoldingsService(store store.HoldingsStore, ledger LedgerRecorder) *HoldingsService {
	return &HoldingsService{
		store:  store,
		ledger: ledger,
	}
}

func (s *HoldingsService) GetHolding(ctx context.Context, propertyID, holderID uuid.UUID) (*models.TokenHolding, error) {
	return s.store.GetHolding(ctx, propertyID, holderID)
}

func (s *HoldingsService) ListHoldings(ctx context.Context, propertyID uuid.UUID, offset, limit int) ([]models.TokenHolding, int64, error) {
	if _, err := s.store.GetProperty(ctx, propertyID); err != nil {
		return nil, 0, err
	}
	return s.store.ListHoldingsPage(ctx, propertyID, offset, limit)
}

// HolderTokens returns the holder's current balance, zero when no holding
// row exists. Eligibility checks and voting power both read through here.
func (s *HoldingsService) HolderTokens(ctx context.Context, propertyID, holderID uuid.UUID) (decimal.Decimal, error) {
	holding, err := s.store.GetHolding(ctx, propertyID, holderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return holding.TokensOwned, nil
}

// Transfer moves tokens between two holders of a property. Both legs apply
// atomically; the supply invariant is enforced by the store.
func (s *HoldingsService) Transfer(ctx context.Context, fromHolderID uuid.UUID, req *TransferTokensRequest) error {
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("transfer quantity must be positive: %w", apperrors.ErrInvalidState)
	}
	if fromHolderID == req.ToHolderID {
		return fmt.Errorf("cannot transfer to self: %w", apperrors.ErrInvalidState)
	}

	property, err := s.store.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return err
	}
	if property.Status == models.PropertyStatusCancelled || property.Status == models.PropertyStatusDraft {
		return fmt.Errorf("property %s is not transferable: %w", property.ID, apperrors.ErrInvalidState)
	}

	if err := s.store.Transfer(ctx, req.PropertyID, fromHolderID, req.ToHolderID, req.Quantity, req.PricePerToken); err != nil {
		return err
	}

	if _, err := s.ledger.RecordEvent(ctx, models.LedgerEventTokenTransfer, models.JSONB{
		"property_id":    req.PropertyID.String(),
		"from_holder_id": fromHolderID.String(),
		"to_holder_id":   req.ToHolderID.String(),
		"quantity":       req.Quantity.String(),
	}); err != nil {
		logrus.WithError(err).Warn("Token transfer completed but ledger recording failed")
	}

	return nil
}
