package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Method selects how an expense is divided among its participants.
type Method string

const (
	MethodEqual      Method = "equal"
	MethodShares     Method = "shares"
	MethodPercentage Method = "percentage"
	MethodCustom     Method = "custom"
)

// Valid reports whether m is one of the four split methods.
func (m Method) Valid() bool {
	switch m {
	case MethodEqual, MethodShares, MethodPercentage, MethodCustom:
		return true
	}
	return false
}

// ParseMethod converts a wire value into a Method.
// "parts" is accepted as an alias for shares.
func ParseMethod(s string) (Method, error) {
	if m := Method(s); m.Valid() {
		return m, nil
	}
	switch s {
	case "parts":
		return MethodShares, nil
	default:
		return "", invalid("unknown split method %q", s)
	}
}

// Allocation is the per-participant input of a split method.
// Exactly one variant exists per Method:
//
//	Equal{}               equal
//	Shares{Count}         shares
//	Percentage{Percent}   percentage
//	Custom{Amount}        custom
type Allocation interface {
	Method() Method
	isAllocation()
}

// Equal carries no input; every participant owes the same amount.
type Equal struct{}

// Shares weights a participant by Count parts of the total.
type Shares struct {
	Count decimal.Decimal
}

// Percentage assigns Percent of the total to a participant.
type Percentage struct {
	Percent decimal.Decimal
}

// Custom assigns an exact Amount to a participant.
type Custom struct {
	Amount decimal.Decimal
}

func (Equal) Method() Method      { return MethodEqual }
func (Shares) Method() Method     { return MethodShares }
func (Percentage) Method() Method { return MethodPercentage }
func (Custom) Method() Method     { return MethodCustom }

func (Equal) isAllocation()      {}
func (Shares) isAllocation()     {}
func (Percentage) isAllocation() {}
func (Custom) isAllocation()     {}

// NewAllocation builds the variant for method from a single wire value.
// The value is ignored for the equal method.
func NewAllocation(method Method, value decimal.Decimal) (Allocation, error) {
	switch method {
	case MethodEqual:
		return Equal{}, nil
	case MethodShares:
		return Shares{Count: value}, nil
	case MethodPercentage:
		return Percentage{Percent: value}, nil
	case MethodCustom:
		return Custom{Amount: value}, nil
	default:
		return nil, fmt.Errorf("unknown split method %q", method)
	}
}

// AllocationValue returns the single numeric input carried by a.
func AllocationValue(a Allocation) decimal.Decimal {
	switch v := a.(type) {
	case Shares:
		return v.Count
	case Percentage:
		return v.Percent
	case Custom:
		return v.Amount
	default:
		return decimal.Zero
	}
}

// Participant is a person who owes a share of an expense.
type Participant struct {
	UserID     int64
	Name       string
	Allocation Allocation
}

// Contributor is a person who paid toward an expense.
type Contributor struct {
	UserID int64
	Name   string
	Paid   decimal.Decimal
}

// SplitRequest is the complete input of ComputeSplit.
type SplitRequest struct {
	Amount       decimal.Decimal
	Currency     string
	Method       Method
	Contributors []Contributor
	Participants []Participant
}

// Share is one participant's allocated portion of the expense.
type Share struct {
	UserID int64
	Amount decimal.Decimal
}

// Edge is a directed debt: OwerID owes PayerID Amount in Currency.
// ExpenseID and GroupID are set by the caller when edges are persisted;
// GroupID is empty for direct friend-to-friend expenses.
type Edge struct {
	ExpenseID string
	GroupID   string
	OwerID    int64
	PayerID   int64
	Amount    decimal.Decimal
	Currency  string
}

// SplitResult is the output of ComputeSplit.
type SplitResult struct {
	Currency string
	// Shares holds one entry per participant in input order. They sum to the
	// expense amount exactly.
	Shares []Share
	// Edges holds the debts left after netting shares against payments.
	Edges []Edge
}

// EdgeTotal sums the amounts of all edges.
func (r *SplitResult) EdgeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.Edges {
		total = total.Add(e.Amount)
	}
	return total
}

// ShareOf returns the allocated share of userID, zero if not a participant.
func (r *SplitResult) ShareOf(userID int64) decimal.Decimal {
	for _, s := range r.Shares {
		if s.UserID == userID {
			return s.Amount
		}
	}
	return decimal.Zero
}
