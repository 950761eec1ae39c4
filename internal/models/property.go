// internal/models/property.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenizedProperty is a property whose ownership has been split into
// fractional tokens. Supply and pricing are immutable once the property
// reaches the minted status.
type TokenizedProperty struct {
	BaseModel
	IssuerID    uuid.UUID       `json:"issuer_id" gorm:"type:uuid;not null;index"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Address     string          `json:"address" gorm:"type:text"`
	TotalSupply decimal.Decimal `json:"total_supply" gorm:"type:decimal(30,8);not null"`
	TokenPrice  decimal.Decimal `json:"token_price" gorm:"type:decimal(18,2);not null"`
	Currency    string          `json:"currency" gorm:"size:3;default:'USD'"`
	Status      PropertyStatus  `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	MintedAt    *time.Time      `json:"minted_at"`

	// Relationships
	Holdings []TokenHolding `json:"holdings,omitempty" gorm:"foreignKey:PropertyID"`
}

// InvestmentGroup is the holder collective of one tokenized property.
// Governance polls are scoped to a group.
type InvestmentGroup struct {
	BaseModel
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:255;not null"`

	Property TokenizedProperty `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}

// TokenHolding is the (property, holder) balance row. It is the single
// source of truth for distribution shares and voting power. Rows are kept
// at zero balance for audit; they are never deleted.
type TokenHolding struct {
	BaseModel
	PropertyID            uuid.UUID       `json:"property_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_holdings_property_holder"`
	HolderID              uuid.UUID       `json:"holder_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_holdings_property_holder"`
	TokensOwned           decimal.Decimal `json:"tokens_owned" gorm:"type:decimal(30,8);not null;default:0"`
	PurchasePricePerToken decimal.Decimal `json:"purchase_price_per_token" gorm:"type:decimal(18,2)"`
	AcquisitionDate       time.Time       `json:"acquisition_date"`

	Property TokenizedProperty `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
}
