// internal/services/payment_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	store   *memStore
	service *PaymentService
	payment *models.DividendPayment
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.store = newMemStore()
	s.service = NewPaymentService(s.store, &fakeNotifier{})

	s.payment = &models.DividendPayment{
		DistributionID: uuid.New(),
		HolderID:       uuid.New(),
		TokensOwned:    mustDecimal("100"),
		GrossAmount:    mustDecimal("100"),
		TaxWithholding: mustDecimal("10"),
		NetAmount:      mustDecimal("90"),
		Currency:       "USD",
		Status:         models.PaymentStatusPending,
	}
	s.Require().NoError(s.store.CreatePayment(context.Background(), s.payment))
}

func (s *PaymentServiceTestSuite) TestMarkPaidFromPending() {
	paid, err := s.service.MarkPaid(context.Background(), s.payment.ID, "po_12345")
	s.Require().NoError(err)

	s.Equal(models.PaymentStatusPaid, paid.Status)
	s.Equal("po_12345", paid.ExternalReference)
	s.NotNil(paid.PaidAt)
}

func (s *PaymentServiceTestSuite) TestMarkPaidTwiceRejected() {
	_, err := s.service.MarkPaid(context.Background(), s.payment.ID, "po_12345")
	s.Require().NoError(err)

	_, err = s.service.MarkPaid(context.Background(), s.payment.ID, "po_67890")
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))

	stored, err := s.store.GetPayment(context.Background(), s.payment.ID)
	s.Require().NoError(err)
	s.Equal("po_12345", stored.ExternalReference)
}

func (s *PaymentServiceTestSuite) TestMarkPaidOnFailedRejected() {
	s.payment.Status = models.PaymentStatusFailed
	s.Require().NoError(s.store.UpdatePayment(context.Background(), s.payment))

	_, err := s.service.MarkPaid(context.Background(), s.payment.ID, "po_12345")
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *PaymentServiceTestSuite) TestMarkPaidUnknownPayment() {
	_, err := s.service.MarkPaid(context.Background(), uuid.New(), "po_12345")
	s.Require().Error(err)
	s.True(apperrors.IsNotFound(err))
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
