// internal/services/fakes_test.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propshare/propshare-backend/internal/apperrors"
	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/models"
)

// memStore is an in-memory double for the store interfaces. It mirrors the
// transactional behavior the services rely on: CastVote applies fn to copies
// and only persists on success, and Transfer rolls back the first leg when
// the second fails.
type memStore struct {
	properties    map[uuid.UUID]*models.TokenizedProperty
	groups        map[uuid.UUID]*models.InvestmentGroup
	holdings      map[uuid.UUID]map[uuid.UUID]*models.TokenHolding
	distributions map[uuid.UUID]*models.RevenueDistribution
	payments      map[uuid.UUID]*models.DividendPayment
	polls         map[uuid.UUID]*models.InvestmentPoll
	votes         map[uuid.UUID]map[uuid.UUID]*models.PollVote
}

func newMemStore() *memStore {
	return &memStore{
		properties:    make(map[uuid.UUID]*models.TokenizedProperty),
		groups:        make(map[uuid.UUID]*models.InvestmentGroup),
		holdings:      make(map[uuid.UUID]map[uuid.UUID]*models.TokenHolding),
		distributions: make(map[uuid.UUID]*models.RevenueDistribution),
		payments:      make(map[uuid.UUID]*models.DividendPayment),
		polls:         make(map[uuid.UUID]*models.InvestmentPoll),
		votes:         make(map[uuid.UUID]map[uuid.UUID]*models.PollVote),
	}
}

func (m *memStore) addProperty(supply string, status models.PropertyStatus) *models.TokenizedProperty {
	property := &models.TokenizedProperty{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		IssuerID:    uuid.New(),
		Title:       "12 Harbor Street",
		TotalSupply: mustDecimal(supply),
		TokenPrice:  mustDecimal("100"),
		Currency:    "USD",
		Status:      status,
	}
	m.properties[property.ID] = property
	m.holdings[property.ID] = make(map[uuid.UUID]*models.TokenHolding)
	return property
}

func (m *memStore) addGroup(propertyID uuid.UUID) *models.InvestmentGroup {
	group := &models.InvestmentGroup{
		BaseModel:  models.BaseModel{ID: uuid.New()},
		PropertyID: propertyID,
		Name:       "Harbor Street Investors",
	}
	m.groups[group.ID] = group
	return group
}

func (m *memStore) addHolding(propertyID, holderID uuid.UUID, tokens string) *models.TokenHolding {
	holding := &models.TokenHolding{
		BaseModel:       models.BaseModel{ID: uuid.New()},
		PropertyID:      propertyID,
		HolderID:        holderID,
		TokensOwned:     mustDecimal(tokens),
		AcquisitionDate: time.Now(),
	}
	m.holdings[propertyID][holderID] = holding
	return holding
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// HoldingsStore

func (m *memStore) GetProperty(_ context.Context, propertyID uuid.UUID) (*models.TokenizedProperty, error) {
	property, ok := m.properties[propertyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return property, nil
}

func (m *memStore) GetInvestmentGroup(_ context.Context, groupID uuid.UUID) (*models.InvestmentGroup, error) {
	group, ok := m.groups[groupID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return group, nil
}

func (m *memStore) GetHolding(_ context.Context, propertyID, holderID uuid.UUID) (*models.TokenHolding, error) {
	holding, ok := m.holdings[propertyID][holderID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return holding, nil
}

func (m *memStore) ListHolders(_ context.Context, propertyID uuid.UUID) ([]models.TokenHolding, error) {
	var out []models.TokenHolding
	for _, h := range m.holdings[propertyID] {
		if h.TokensOwned.IsPositive() {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *memStore) ListHoldingsPage(ctx context.Context, propertyID uuid.UUID, offset, limit int) ([]models.TokenHolding, int64, error) {
	holders, err := m.ListHolders(ctx, propertyID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(holders))
	if offset >= len(holders) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(holders) {
		end = len(holders)
	}
	return holders[offset:end], total, nil
}

func (m *memStore) ApplyDelta(_ context.Context, propertyID, holderID uuid.UUID, delta, pricePerToken decimal.Decimal) (*models.TokenHolding, error) {
	property, ok := m.properties[propertyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	holding, ok := m.holdings[propertyID][holderID]
	if !ok {
		if delta.IsNegative() {
			return nil, apperrors.ErrInsufficientBalance
		}
		holding = &models.TokenHolding{
			BaseModel:             models.BaseModel{ID: uuid.New()},
			PropertyID:            propertyID,
			HolderID:              holderID,
			TokensOwned:           decimal.Zero,
			PurchasePricePerToken: pricePerToken,
			AcquisitionDate:       time.Now(),
		}
		m.holdings[propertyID][holderID] = holding
	}

	next := holding.TokensOwned.Add(delta)
	if next.IsNegative() {
		return nil, apperrors.ErrInsufficientBalance
	}

	total := next
	for id, h := range m.holdings[propertyID] {
		if id != holderID {
			total = total.Add(h.TokensOwned)
		}
	}
	if total.GreaterThan(property.TotalSupply) {
		return nil, apperrors.ErrSupplyExceeded
	}

	holding.TokensOwned = next
	return holding, nil
}

func (m *memStore) Transfer(ctx context.Context, propertyID, fromID, toID uuid.UUID, quantity, pricePerToken decimal.Decimal) error {
	if _, err := m.ApplyDelta(ctx, propertyID, fromID, quantity.Neg(), decimal.Zero); err != nil {
		return err
	}
	if _, err := m.ApplyDelta(ctx, propertyID, toID, quantity, pricePerToken); err != nil {
		m.holdings[propertyID][fromID].TokensOwned = m.holdings[propertyID][fromID].TokensOwned.Add(quantity)
		return err
	}
	return nil
}

// DistributionStore

func (m *memStore) CreateFromHoldings(ctx context.Context, propertyID uuid.UUID, fn func(holders []models.TokenHolding) (*models.RevenueDistribution, error)) (*models.RevenueDistribution, error) {
	if _, ok := m.properties[propertyID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	holders, err := m.ListHolders(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	dist, err := fn(holders)
	if err != nil {
		return nil, err
	}
	dist.ID = uuid.New()
	dist.CreatedAt = time.Now()
	m.distributions[dist.ID] = dist
	return dist, nil
}

func (m *memStore) GetDistribution(_ context.Context, distributionID uuid.UUID) (*models.RevenueDistribution, error) {
	dist, ok := m.distributions[distributionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return dist, nil
}

func (m *memStore) UpdateDistribution(_ context.Context, dist *models.RevenueDistribution) error {
	m.distributions[dist.ID] = dist
	return nil
}

func (m *memStore) CreatePayment(_ context.Context, payment *models.DividendPayment) error {
	for _, p := range m.payments {
		if p.DistributionID == payment.DistributionID && p.HolderID == payment.HolderID {
			return fmt.Errorf("duplicate payment for holder %s", payment.HolderID)
		}
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()
	m.payments[payment.ID] = payment
	return nil
}

func (m *memStore) GetPayment(_ context.Context, paymentID uuid.UUID) (*models.DividendPayment, error) {
	payment, ok := m.payments[paymentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return payment, nil
}

func (m *memStore) GetPaymentByHolder(_ context.Context, distributionID, holderID uuid.UUID) (*models.DividendPayment, error) {
	for _, p := range m.payments {
		if p.DistributionID == distributionID && p.HolderID == holderID {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memStore) ListPayments(_ context.Context, distributionID uuid.UUID) ([]models.DividendPayment, error) {
	var out []models.DividendPayment
	for _, p := range m.payments {
		if p.DistributionID == distributionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePayment(_ context.Context, payment *models.DividendPayment) error {
	m.payments[payment.ID] = payment
	return nil
}

// PollStore

func (m *memStore) CreatePoll(_ context.Context, poll *models.InvestmentPoll) error {
	poll.ID = uuid.New()
	poll.CreatedAt = time.Now()
	m.polls[poll.ID] = poll
	return nil
}

func (m *memStore) GetPoll(_ context.Context, pollID uuid.UUID) (*models.InvestmentPoll, error) {
	poll, ok := m.polls[pollID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return poll, nil
}

func (m *memStore) ListPollsByGroup(_ context.Context, groupID uuid.UUID, offset, limit int) ([]models.InvestmentPoll, int64, error) {
	var out []models.InvestmentPoll
	for _, p := range m.polls {
		if p.InvestmentGroupID == groupID {
			out = append(out, *p)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *memStore) UpdatePoll(_ context.Context, poll *models.InvestmentPoll) error {
	m.polls[poll.ID] = poll
	return nil
}

func (m *memStore) GetVote(_ context.Context, pollID, voterID uuid.UUID) (*models.PollVote, error) {
	vote, ok := m.votes[pollID][voterID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return vote, nil
}

func (m *memStore) ListVotes(_ context.Context, pollID uuid.UUID) ([]models.PollVote, error) {
	var out []models.PollVote
	for _, v := range m.votes[pollID] {
		out = append(out, *v)
	}
	return out, nil
}

func (m *memStore) CastVote(_ context.Context, pollID, voterID uuid.UUID, fn func(poll *models.InvestmentPoll, existing *models.PollVote) (*models.PollVote, error)) (*models.InvestmentPoll, *models.PollVote, error) {
	stored, ok := m.polls[pollID]
	if !ok {
		return nil, nil, apperrors.ErrNotFound
	}

	pollCopy := *stored
	var existingCopy *models.PollVote
	if v, ok := m.votes[pollID][voterID]; ok {
		c := *v
		existingCopy = &c
	}

	row, err := fn(&pollCopy, existingCopy)
	if err != nil {
		return nil, nil, err
	}

	if row.ID == uuid.Nil {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
	}
	if m.votes[pollID] == nil {
		m.votes[pollID] = make(map[uuid.UUID]*models.PollVote)
	}
	m.votes[pollID][voterID] = row
	*stored = pollCopy
	return stored, row, nil
}

func (m *memStore) ExpirePolls(_ context.Context, now time.Time) (int64, error) {
	var expired int64
	for _, p := range m.polls {
		if p.Status == models.PollStatusActive && now.After(p.EndsAt) {
			p.Status = models.PollStatusExpired
			expired++
		}
	}
	return expired, nil
}

// Collaborator fakes

type creditCall struct {
	HolderID       uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string
}

type fakeCreditor struct {
	failFor map[uuid.UUID]error
	calls   []creditCall
}

func newFakeCreditor() *fakeCreditor {
	return &fakeCreditor{failFor: make(map[uuid.UUID]error)}
}

func (f *fakeCreditor) Credit(_ context.Context, userID uuid.UUID, amount decimal.Decimal, currency, idempotencyKey string) (string, error) {
	if err, ok := f.failFor[userID]; ok {
		return "", err
	}
	f.calls = append(f.calls, creditCall{HolderID: userID, Amount: amount, IdempotencyKey: idempotencyKey})
	return "tr_" + idempotencyKey, nil
}

func (f *fakeCreditor) callsFor(holderID uuid.UUID) []creditCall {
	var out []creditCall
	for _, c := range f.calls {
		if c.HolderID == holderID {
			out = append(out, c)
		}
	}
	return out
}

type sentNotification struct {
	UserID uuid.UUID
	Type   string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, notifType, title, message string, metadata models.JSONB) error {
	f.sent = append(f.sent, sentNotification{UserID: userID, Type: notifType})
	return nil
}

func (f *fakeNotifier) countByType(notifType string) int {
	n := 0
	for _, s := range f.sent {
		if s.Type == notifType {
			n++
		}
	}
	return n
}

type recordedEvent struct {
	Type models.LedgerEventType
	Data models.JSONB
}

type fakeLedger struct {
	events []recordedEvent
}

func (f *fakeLedger) RecordEvent(_ context.Context, eventType models.LedgerEventType, eventData models.JSONB) (*LedgerReceipt, error) {
	f.events = append(f.events, recordedEvent{Type: eventType, Data: eventData})
	return &LedgerReceipt{
		ExternalTransactionID: fmt.Sprintf("ledger-tx-%d", len(f.events)),
		ConsensusTimestamp:    time.Now(),
	}, nil
}

func (f *fakeLedger) countByType(eventType models.LedgerEventType) int {
	n := 0
	for _, e := range f.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Distribution: config.DistributionConfig{
			WithholdingRate: mustDecimal("0.10"),
			TokenPrecision:  8,
			PowerPrecision:  4,
		},
	}
}
