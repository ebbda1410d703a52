package models

import "github.com/shopspring/decimal"

// Expense represents one shared cost and the debts generated from it.
// Amount, Currency and Method never change once splits exist; an edit
// replaces Participants, Contributors and Splits together.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable name (e.g., "Dinner at Rosa's").
	Description string

	// Amount is the positive total of the expense.
	Amount decimal.Decimal

	// Currency is an ISO 4217 code. No conversion is ever applied.
	Currency string

	// Method is the split method: equal, shares, percentage or custom.
	Method string

	// GroupID is the owning group; empty for a direct friend expense.
	GroupID string

	// CreatedBy is the user ID who recorded the expense.
	CreatedBy int64

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64

	// Deleted and Settled are soft flags shared with every split.
	Deleted bool
	Settled bool

	// Participants are the users who owe a share, in input order.
	Participants []ExpenseParticipant

	// Contributors are the users who paid, in input order.
	Contributors []ExpenseContributor

	// Splits are the debt edges generated for this expense.
	Splits []Split
}

// ExpenseParticipant stores one participant's allocation input and the share
// it produced.
type ExpenseParticipant struct {
	UserID int64

	// Value is the method-specific input: share count, percentage or custom
	// amount. Zero for the equal method.
	Value decimal.Decimal

	// Share is the computed portion of the expense.
	Share decimal.Decimal
}

// ExpenseContributor stores how much one user paid toward the expense.
type ExpenseContributor struct {
	UserID int64
	Paid   decimal.Decimal
}

// Split is one debt edge: OwerID owes PayerID Amount in Currency.
type Split struct {
	ID        string
	ExpenseID string
	OwerID    int64
	PayerID   int64
	Amount    decimal.Decimal
	Currency  string
	GroupID   string
	Settled   bool
	Deleted   bool
}

// UserIDs returns every distinct user referenced by the expense, in
// participant-then-contributor order.
func (e *Expense) UserIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range e.Participants {
		add(p.UserID)
	}
	for _, c := range e.Contributors {
		add(c.UserID)
	}
	return ids
}

// Involves reports whether userID participates in or paid for the expense.
func (e *Expense) Involves(userID int64) bool {
	for _, id := range e.UserIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
