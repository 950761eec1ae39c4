// internal/models/payout_account.go
package models

import "github.com/google/uuid"

// PayoutAccount maps a holder to the connected Stripe account dividend
// credits are transferred to. Holders without a row fail the per-holder
// credit step and are surfaced in the distribution's retryable list.
type PayoutAccount struct {
	BaseModel
	UserID          uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	StripeAccountID string    `json:"stripe_account_id" gorm:"size:255;not null"`
	Email           string    `json:"email" gorm:"size:255"`
}
