package models

import "github.com/shopspring/decimal"

// Settlement records a settle-up between two users in one currency.
// Settling marks every active split between the pair as settled.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// FromUserID is the user who owed money (debtor settling up).
	FromUserID int64

	// ToUserID is the user who was owed (creditor being paid).
	ToUserID int64

	// Currency of the settled splits.
	Currency string

	// Amount is the net amount that changed hands. It is zero when the
	// settled splits cancelled each other out.
	Amount decimal.Decimal

	// SplitCount is the number of splits marked settled.
	SplitCount int64

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy int64
}
