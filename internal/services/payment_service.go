// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
	"github.com/propshare/propshare-backend/internal/store"
)

// PaymentService owns the DividendPayment state machine. Dividends never
// touch token balances; settlement is reflected here and nowhere else.
type PaymentService struct {
	store    store.DistributionStore
	notifier Notifier
}

type MarkPaidRequest struct {
	ExternalReference string `json:"external_reference" validate:"required"`
}

func NewPaymentService(store store.DistributionStore, notifier Notifier) *PaymentService {
	return &PaymentService{
		store:    store,
		notifier: notifier,
	}
}

// MarkPaid transitions a payment from pending to paid, recording the
// processor's reference. Any other starting state is rejected.
func (s *PaymentService) MarkPaid(ctx context.Context, paymentID uuid.UUID, externalReference string) (*models.DividendPayment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("payment %s is %s, not pending: %w",
			paymentID, payment.Status, apperrors.ErrInvalidState)
	}

	now := time.Now()
	payment.Status = models.PaymentStatusPaid
	payment.ExternalReference = externalReference
	payment.FailureReason = ""
	payment.PaidAt = &now

	if err := s.store.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.DividendPayment, error) {
	return s.store.GetPayment(ctx, paymentID)
}
