// internal/services/holdings_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/models"
)

type HoldingsServiceTestSuite struct {
	suite.Suite
	store   *memStore
	ledger  *fakeLedger
	service *HoldingsService

	property *models.TokenizedProperty
	seller   uuid.UUID
	buyer    uuid.UUID
}

func (s *HoldingsServiceTestSuite) SetupTest() {
	s.store = newMemStore()
	s.ledger = &fakeLedger{}
	s.service = NewHoldingsService(s.store, s.ledger)

	s.property = s.store.addProperty("1000", models.PropertyStatusMinted)
	s.seller = uuid.New()
	s.buyer = uuid.New()
	s.store.addHolding(s.property.ID, s.seller, "400")
}

func (s *HoldingsServiceTestSuite) transfer(quantity string) error {
	return s.service.Transfer(context.Background(), s.seller, &TransferTokensRequest{
		PropertyID:    s.property.ID,
		ToHolderID:    s.buyer,
		Quantity:      mustDecimal(quantity),
		PricePerToken: mustDecimal("105"),
	})
}

func (s *HoldingsServiceTestSuite) TestTransferMovesBalances() {
	s.Require().NoError(s.transfer("150"))

	sellerTokens, err := s.service.HolderTokens(context.Background(), s.property.ID, s.seller)
	s.Require().NoError(err)
	s.True(sellerTokens.Equal(mustDecimal("250")))

	buyerTokens, err := s.service.HolderTokens(context.Background(), s.property.ID, s.buyer)
	s.Require().NoError(err)
	s.True(buyerTokens.Equal(mustDecimal("150")))

	s.Equal(1, s.ledger.countByType(models.LedgerEventTokenTransfer))
}

func (s *HoldingsServiceTestSuite) TestTransferInsufficientBalance() {
	err := s.transfer("500")
	s.Require().Error(err)
	s.True(apperrors.IsInvariantViolation(err))

	sellerTokens, err := s.service.HolderTokens(context.Background(), s.property.ID, s.seller)
	s.Require().NoError(err)
	s.True(sellerTokens.Equal(mustDecimal("400")))
}

func (s *HoldingsServiceTestSuite) TestTransferNonPositiveQuantity() {
	err := s.transfer("0")
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *HoldingsServiceTestSuite) TestTransferToSelfRejected() {
	err := s.service.Transfer(context.Background(), s.seller, &TransferTokensRequest{
		PropertyID: s.property.ID,
		ToHolderID: s.seller,
		Quantity:   mustDecimal("10"),
	})
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *HoldingsServiceTestSuite) TestTransferOnDraftPropertyRejected() {
	s.property.Status = models.PropertyStatusDraft

	err := s.transfer("10")
	s.Require().Error(err)
	s.True(apperrors.IsInvalidState(err))
}

func (s *HoldingsServiceTestSuite) TestZeroBalanceRowIsKept() {
	s.Require().NoError(s.transfer("400"))

	holding, err := s.service.GetHolding(context.Background(), s.property.ID, s.seller)
	s.Require().NoError(err)
	s.True(holding.TokensOwned.IsZero())

	holders, err := s.store.ListHolders(context.Background(), s.property.ID)
	s.Require().NoError(err)
	s.Require().Len(holders, 1)
	s.Equal(s.buyer, holders[0].HolderID)
}

func (s *HoldingsServiceTestSuite) TestHolderTokensZeroWhenNoRow() {
	tokens, err := s.service.HolderTokens(context.Background(), s.property.ID, uuid.New())
	s.Require().NoError(err)
	s.True(tokens.IsZero())
}

func TestHoldingsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HoldingsServiceTestSuite))
}
