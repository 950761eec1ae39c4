// internal/services/distribution_service.go
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

// Amounts are rounded half-even to minor-currency digits; revenue-per-token
// keeps the configured token precision. The cumulative rounding error of a
// run stays under one minor unit per holder.
const minorUnitDigits = 2

type DistributionService struct {
	store    store.DistributionStore
	holdings store.HoldingsStore
	creditor AccountCreditor
	notifier Notifier
	ledger   LedgerRecorder
	config   *config.Config
}

type DistributeRevenueRequest struct {
	PropertyID        uuid.UUID               `json:"property_id" validate:"required"`
	TotalRevenue      decimal.Decimal         `json:"total_revenue" validate:"required"`
	DistributionType  models.DistributionType `json:"distribution_type" validate:"required,oneof=rental_income sale_proceeds other"`
	SourceDescription string                  `json:"source_description"`
	Currency          string                  `json:"currency" validate:"omitempty,len=3"`
}

type DistributionResult struct {
	DistributionID     uuid.UUID                 `json:"distribution_id"`
	RevenuePerToken    decimal.Decimal           `json:"revenue_per_token"`
	TotalHolders       int                       `json:"total_holders"`
	SuccessfulPayments int                       `json:"successful_payments"`
	FailedPayments     int                       `json:"failed_payments"`
	Status             models.DistributionStatus `json:"status"`
}

type holderShare struct {
	HolderID uuid.UUID
	Tokens   decimal.Decimal
}

func NewDistributionService(store store.DistributionStore, holdings store.HoldingsStore, creditor AccountCreditor, notifier Notifier, ledger LedgerRecorder, config *config.Config) *DistributionService {
	return &DistributionService{
		store:    store,
		holdings: holdings,
		creditor: creditor,
		notifier: notifier,
		ledger:   ledger,
		config:   config,
	}
}

// DistributeRevenue divides totalRevenue across the property's current
// holders. The distribution row and the holder snapshot are created in one
// transaction before any payment is attempted; each per-holder payment is
// then an independent, retryable step, so one holder's failure never aborts
// the rest.
func (s *DistributionService) DistributeRevenue(ctx context.Context, req *DistributeRevenueRequest) (*DistributionResult, error) {
	if !req.TotalRevenue.IsPositive() {
		return nil, fmt.Errorf("total revenue must be positive: %w", apperrors.ErrInvalidState)
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	property, err := s.holdings.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.Status != models.PropertyStatusMinted && property.Status != models.PropertyStatusSaleActive {
		return nil, fmt.Errorf("property %s is not distributable in status %s: %w",
			property.ID, property.Status, apperrors.ErrInvalidState)
	}

	rate := s.config.Distribution.WithholdingRate

	dist, err := s.store.CreateFromHoldings(ctx, req.PropertyID, func(holders []models.TokenHolding) (*models.RevenueDistribution, error) {
		if len(holders) == 0 {
			return nil, fmt.Errorf("property %s: %w", req.PropertyID, apperrors.ErrNoEligibleHolders)
		}

		// Treasury tokens never sit in holdings rows, so the enumerated
		// holders are exactly the dividend-eligible set.
		totalTokens := decimal.Zero
		for _, h := range holders {
			totalTokens = totalTokens.Add(h.TokensOwned)
		}

		revenuePerToken := req.TotalRevenue.
			Div(totalTokens).
			RoundBank(s.config.Distribution.TokenPrecision)

		snapshot := make([]interface{}, 0, len(holders))
		for _, h := range holders {
			snapshot = append(snapshot, map[string]interface{}{
				"holder_id": h.HolderID.String(),
				"tokens":    h.TokensOwned.String(),
			})
		}

		return &models.RevenueDistribution{
			PropertyID:        req.PropertyID,
			TotalRevenue:      req.TotalRevenue,
			RevenuePerToken:   revenuePerToken,
			TotalTokensHeld:   totalTokens,
			TotalHolders:      len(holders),
			DistributionType:  req.DistributionType,
			SourceDescription: req.SourceDescription,
			Currency:          currency,
			WithholdingRate:   rate,
			Status:            models.DistributionStatusProcessing,
			Metadata:          models.JSONB{"holder_snapshot": snapshot},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	shares, err := snapshotShares(dist)
	if err != nil {
		return nil, err
	}

	return s.processShares(ctx, dist, shares)
}

// RetryFailed re-runs the per-holder step for every snapshot holder that
// does not yet have a paid payment. Calling it on a completed distribution
// is a no-op; no payment row is ever duplicated.
func (s *DistributionService) RetryFailed(ctx context.Context, distributionID uuid.UUID) (*DistributionResult, error) {
	dist, err := s.store.GetDistribution(ctx, distributionID)
	if err != nil {
		return nil, err
	}

	shares, err := snapshotShares(dist)
	if err != nil {
		return nil, err
	}

	if dist.Status == models.DistributionStatusCompleted {
		return s.summarize(ctx, dist)
	}

	return s.processShares(ctx, dist, shares)
}

func (s *DistributionService) GetDistribution(ctx context.Context, distributionID uuid.UUID) (*models.RevenueDistribution, error) {
	return s.store.GetDistribution(ctx, distributionID)
}

func (s *DistributionService) ListPayments(ctx context.Context, distributionID uuid.UUID) ([]models.DividendPayment, error) {
	if _, err := s.store.GetDistribution(ctx, distributionID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, distributionID)
}

func (s *DistributionService) processShares(ctx context.Context, dist *models.RevenueDistribution, shares []holderShare) (*DistributionResult, error) {
	var succeeded, failed int
	failedHolders := make([]interface{}, 0)

	for _, share := range shares {
		paid, err := s.processHolderPayment(ctx, dist, share)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"distribution_id": dist.ID,
				"holder_id":       share.HolderID,
			}).Error("Dividend payment step failed")
		}
		if paid {
			succeeded++
		} else {
			failed++
			failedHolders = append(failedHolders, share.HolderID.String())
		}
	}

	now := time.Now()
	if failed == 0 {
		dist.Status = models.DistributionStatusCompleted
		dist.CompletedAt = &now
		delete(dist.Metadata, "failed_holders")
	} else {
		dist.Status = models.DistributionStatusPartial
		dist.Metadata["failed_holders"] = failedHolders
	}
	if err := s.store.UpdateDistribution(ctx, dist); err != nil {
		return nil, err
	}

	s.recordDistributionEvent(ctx, dist, succeeded, failed)

	return &DistributionResult{
		DistributionID:     dist.ID,
		RevenuePerToken:    dist.RevenuePerToken,
		TotalHolders:       dist.TotalHolders,
		SuccessfulPayments: succeeded,
		FailedPayments:     failed,
		Status:             dist.Status,
	}, nil
}

// processHolderPayment is the independent, retryable per-holder step:
// idempotent on (distribution, holder), it creates the payment row when
// missing, attempts the account credit, and records the outcome.
func (s *DistributionService) processHolderPayment(ctx context.Context, dist *models.RevenueDistribution, share holderShare) (bool, error) {
	payment, err := s.store.GetPaymentByHolder(ctx, dist.ID, share.HolderID)
	switch {
	case apperrors.IsNotFound(err):
		gross := share.Tokens.Mul(dist.RevenuePerToken).RoundBank(minorUnitDigits)
		tax := gross.Mul(dist.WithholdingRate).RoundBank(minorUnitDigits)
		payment = &models.DividendPayment{
			DistributionID: dist.ID,
			HolderID:       share.HolderID,
			TokensOwned:    share.Tokens,
			GrossAmount:    gross,
			TaxWithholding: tax,
			NetAmount:      gross.Sub(tax),
			Currency:       dist.Currency,
			Status:         models.PaymentStatusPending,
		}
		if err := s.store.CreatePayment(ctx, payment); err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	case payment.Status == models.PaymentStatusPaid:
		// Already settled on a previous run.
		return true, nil
	}

	idempotencyKey := fmt.Sprintf("dividend:%s:%s", dist.ID, share.HolderID)
	reference, creditErr := s.creditor.Credit(ctx, share.HolderID, payment.NetAmount, dist.Currency, idempotencyKey)

	now := time.Now()
	if creditErr != nil {
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = creditErr.Error()
	} else {
		payment.Status = models.PaymentStatusPaid
		payment.ExternalReference = reference
		payment.FailureReason = ""
		payment.PaidAt = &now
	}
	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return false, err
	}

	s.notifyHolder(ctx, dist, payment)

	if creditErr != nil {
		return false, creditErr
	}
	return true, nil
}

func (s *DistributionService) notifyHolder(ctx context.Context, dist *models.RevenueDistribution, payment *models.DividendPayment) {
	metadata := models.JSONB{
		"distribution_id": dist.ID.String(),
		"property_id":     dist.PropertyID.String(),
		"net_amount":      payment.NetAmount.String(),
		"currency":        payment.Currency,
	}

	var notifType, title, message string
	if payment.Status == models.PaymentStatusPaid {
		notifType = "dividend_paid"
		title = "Dividend payment received"
		message = fmt.Sprintf("A dividend of %s %s has been credited to your account.",
			payment.NetAmount.StringFixed(minorUnitDigits), payment.Currency)
	} else {
		notifType = "dividend_failed"
		title = "Dividend payment delayed"
		message = fmt.Sprintf("Your dividend of %s %s could not be credited and will be retried.",
			payment.NetAmount.StringFixed(minorUnitDigits), payment.Currency)
	}

	if err := s.notifier.Notify(ctx, payment.HolderID, notifType, title, message, metadata); err != nil {
		logrus.WithError(err).WithField("holder_id", payment.HolderID).
			Warn("Failed to deliver dividend notification")
	}
}

func (s *DistributionService) recordDistributionEvent(ctx context.Context, dist *models.RevenueDistribution, succeeded, failed int) {
	receipt, err := s.ledger.RecordEvent(ctx, models.LedgerEventRevenueDistribution, models.JSONB{
		"distribution_id":   dist.ID.String(),
		"property_id":       dist.PropertyID.String(),
		"total_revenue":     dist.TotalRevenue.String(),
		"revenue_per_token": dist.RevenuePerToken.String(),
		"status":            string(dist.Status),
		"successful":        succeeded,
		"failed":            failed,
	})
	if err != nil {
		logrus.WithError(err).WithField("distribution_id", dist.ID).
			Warn("Distribution completed but ledger recording failed")
		return
	}

	dist.LedgerReference = receipt.ExternalTransactionID
	if err := s.store.UpdateDistribution(ctx, dist); err != nil {
		logrus.WithError(err).Warn("Failed to store ledger reference on distribution")
	}
}

func (s *DistributionService) summarize(ctx context.Context, dist *models.RevenueDistribution) (*DistributionResult, error) {
	payments, err := s.store.ListPayments(ctx, dist.ID)
	if err != nil {
		return nil, err
	}

	var succeeded, failed int
	for _, p := range payments {
		if p.Status == models.PaymentStatusPaid {
			succeeded++
		} else {
			failed++
		}
	}

	return &DistributionResult{
		DistributionID:     dist.ID,
		RevenuePerToken:    dist.RevenuePerToken,
		TotalHolders:       dist.TotalHolders,
		SuccessfulPayments: succeeded,
		FailedPayments:     failed,
		Status:             dist.Status,
	}, nil
}

// snapshotShares decodes the holder snapshot stored on the distribution at
// creation time. Retries and crash recovery use this snapshot, not live
// holdings, so later transfers never change a closed distribution.
func snapshotShares(dist *models.RevenueDistribution) ([]holderShare, error) {
	raw, ok := dist.Metadata["holder_snapshot"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("distribution %s has no holder snapshot", dist.ID)
	}

	shares := make([]holderShare, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("distribution %s has a malformed snapshot entry", dist.ID)
		}
		holderID, err := uuid.Parse(fmt.Sprint(m["holder_id"]))
		if err != nil {
			return nil, fmt.Errorf("invalid holder id in snapshot: %w", err)
		}
		tokens, err := decimal.NewFromString(fmt.Sprint(m["tokens"]))
		if err != nil {
			return nil, fmt.Errorf("invalid token quantity in snapshot: %w", err)
		}
		shares = append(shares, holderShare{HolderID: holderID, Tokens: tokens})
	}
	return shares, nil
}
