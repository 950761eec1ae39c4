// internal/models/audit.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// Notification is an in-app notification row written by the Notifier for
// per-holder payout and poll lifecycle messages.
type Notification struct {
	BaseModel
	UserID   uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Type     string     `json:"type" gorm:"type:varchar(50);not null;index"`
	Title    string     `json:"title" gorm:"size:255;not null"`
	Message  string     `json:"message" gorm:"type:text;not null"`
	Metadata JSONB      `json:"metadata" gorm:"type:jsonb"`
	ReadAt   *time.Time `json:"read_at"`
}

// LedgerEvent is the local record of an event handed to the external ledger
// recorder. ExternalTransactionID and ConsensusTimestamp stay empty when the
// recorder was unreachable; recording is best-effort and retried separately.
type LedgerEvent struct {
	BaseModel
	EventType             LedgerEventType `json:"event_type" gorm:"type:varchar(30);not null;index"`
	EventHash             string          `json:"event_hash" gorm:"size:66;not null"`
	EventData             JSONB           `json:"event_data" gorm:"type:jsonb"`
	ExternalTransactionID string          `json:"external_transaction_id" gorm:"size:255"`
	ConsensusTimestamp    *time.Time      `json:"consensus_timestamp"`
	RecordedAt            *time.Time      `json:"recorded_at"`
}
