// internal/models/distribution.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueDistribution records one revenue distribution event for a property.
// The row is created with status processing before any per-holder payment is
// written; it is the durability checkpoint that makes a run resumable. The
// holder snapshot taken at decision time is kept in Metadata under
// "holder_snapshot" so retries operate on the holdings of record, not on
// live balances.
type RevenueDistribution struct {
	BaseModel
	PropertyID        uuid.UUID          `json:"property_id" gorm:"type:uuid;not null;index"`
	TotalRevenue      decimal.Decimal    `json:"total_revenue" gorm:"type:decimal(18,2);not null"`
	RevenuePerToken   decimal.Decimal    `json:"revenue_per_token" gorm:"type:decimal(30,8);not null"`
	TotalTokensHeld   decimal.Decimal    `json:"total_tokens_held" gorm:"type:decimal(30,8);not null"`
	TotalHolders      int                `json:"total_holders" gorm:"not null"`
	DistributionType  DistributionType   `json:"distribution_type" gorm:"type:varchar(20);not null"`
	SourceDescription string             `json:"source_description" gorm:"type:text"`
	Currency          string             `json:"currency" gorm:"size:3;default:'USD'"`
	WithholdingRate   decimal.Decimal    `json:"withholding_rate" gorm:"type:decimal(6,4);not null"`
	Status            DistributionStatus `json:"status" gorm:"type:varchar(20);default:'processing';index"`
	Metadata          JSONB              `json:"metadata" gorm:"type:jsonb"`
	LedgerReference   string             `json:"ledger_reference" gorm:"size:255"`
	CompletedAt       *time.Time         `json:"completed_at"`

	Property TokenizedProperty `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Payments []DividendPayment `json:"payments,omitempty" gorm:"foreignKey:DistributionID"`
}

// DividendPayment is one holder's share of a distribution. At most one row
// exists per (distribution, holder); retries update the existing row.
type DividendPayment struct {
	BaseModel
	DistributionID    uuid.UUID       `json:"distribution_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_distribution_holder"`
	HolderID          uuid.UUID       `json:"holder_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_distribution_holder"`
	TokensOwned       decimal.Decimal `json:"tokens_owned" gorm:"type:decimal(30,8);not null"`
	GrossAmount       decimal.Decimal `json:"gross_amount" gorm:"type:decimal(18,2);not null"`
	TaxWithholding    decimal.Decimal `json:"tax_withholding" gorm:"type:decimal(18,2);not null"`
	NetAmount         decimal.Decimal `json:"net_amount" gorm:"type:decimal(18,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;default:'USD'"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ExternalReference string          `json:"external_reference" gorm:"size:255"`
	FailureReason     string          `json:"failure_reason,omitempty" gorm:"type:text"`
	PaidAt            *time.Time      `json:"paid_at"`

	Distribution RevenueDistribution `json:"distribution,omitempty" gorm:"foreignKey:DistributionID"`
}
