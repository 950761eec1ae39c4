// internal/apperrors/errors.go
package apperrors

import "errors"

// Sentinel errors for the ledger and governance engine. Services wrap these
// with fmt.Errorf("...: %w", ...) and handlers map them to HTTP statuses.
var (
	// ErrNotFound covers absent properties, polls, distributions, payments
	// and holdings.
	ErrNotFound = errors.New("resource not found")

	// ErrNotEligible is returned when the caller lacks the token holding
	// required for the operation.
	ErrNotEligible = errors.New("caller holds no tokens for this property")

	// ErrInvalidState is returned for transitions out of a terminal or wrong
	// state: voting on a closed poll, marking a non-pending payment paid,
	// distributing against an unminted property.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrPollExpired is returned when a vote arrives after the poll's end
	// time. The tally is left untouched.
	ErrPollExpired = errors.New("poll has expired")

	// ErrVoteAlreadyCast is returned on a repeat vote when the poll does not
	// allow vote changes.
	ErrVoteAlreadyCast = errors.New("vote already cast for this poll")

	// ErrInsufficientBalance is returned when a holding delta would drive
	// the balance negative.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrSupplyExceeded is returned when a holding delta would push the
	// property-wide token sum past the total supply.
	ErrSupplyExceeded = errors.New("token supply exceeded")

	// ErrNoEligibleHolders is returned when a distribution finds no holder
	// with a positive balance.
	ErrNoEligibleHolders = errors.New("no eligible holders for distribution")
)

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsNotEligible(err error) bool  { return errors.Is(err, ErrNotEligible) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNoEligibleHolders) }
func IsExpired(err error) bool      { return errors.Is(err, ErrPollExpired) }
func IsConflict(err error) bool     { return errors.Is(err, ErrVoteAlreadyCast) }
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrSupplyExceeded) || errors.Is(err, ErrInsufficientBalance)
}
