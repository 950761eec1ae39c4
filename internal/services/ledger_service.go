// internal/services/ledger_service.go
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/models"
)

// LedgerReceipt is the recorder's acknowledgement of an appended event.
type LedgerReceipt struct {
	ExternalTransactionID string    `json:"external_transaction_id"`
	ConsensusTimestamp    time.Time `json:"consensus_timestamp"`
}

// LedgerRecorder appends distribution and vote events to the external
// immutable, timestamped log. Recording is best-effort; the caller keeps its
// financial state regardless of the outcome.
type LedgerRecorder interface {
	RecordEvent(ctx context.Context, eventType models.LedgerEventType, eventData models.JSONB) (*LedgerReceipt, error)
}

type LedgerService struct {
	db     *gorm.DB
	config *config.Config
	client *http.Client
}

func NewLedgerService(db *gorm.DB, config *config.Config) *LedgerService {
	return &LedgerService{
		db:     db,
		config: config,
		client: &http.Client{
			Timeout: time.Duration(config.Ledger.TimeoutSeconds) * time.Second,
		},
	}
}

// RecordEvent persists a local LedgerEvent row and hands the event to the
// external recorder. When the recorder is unreachable the local row keeps an
// empty external reference; a later sweep can re-submit it.
func (s *LedgerService) RecordEvent(ctx context.Context, eventType models.LedgerEventType, eventData models.JSONB) (*LedgerReceipt, error) {
	event := &models.LedgerEvent{
		EventType: eventType,
		EventHash: s.generateHash(eventType, eventData),
		EventData: eventData,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to persist ledger event: %w", err)
	}

	receipt, err := s.submit(ctx, eventType, eventData)
	if err != nil {
		logrus.WithError(err).WithField("event_type", eventType).
			Warn("Ledger recorder unreachable, event kept locally")
		return nil, err
	}

	now := time.Now()
	event.ExternalTransactionID = receipt.ExternalTransactionID
	event.ConsensusTimestamp = &receipt.ConsensusTimestamp
	event.RecordedAt = &now
	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return receipt, fmt.Errorf("failed to update ledger event: %w", err)
	}

	return receipt, nil
}

func (s *LedgerService) submit(ctx context.Context, eventType models.LedgerEventType, eventData models.JSONB) (*LedgerReceipt, error) {
	if s.config.Ledger.RecorderURL == "" {
		return nil, fmt.Errorf("ledger recorder not configured")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event_type": eventType,
		"event_data": eventData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Ledger.RecorderURL+"/events", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build recorder request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recorder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("recorder returned status %d", resp.StatusCode)
	}

	var receipt LedgerReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode recorder response: %w", err)
	}

	return &receipt, nil
}

func (s *LedgerService) generateHash(eventType models.LedgerEventType, eventData models.JSONB) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": eventData,
		"ts":   time.Now().Unix(),
	})
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}
