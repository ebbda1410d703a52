package api

import "github.com/shopspring/decimal"

// User is the public view of an account.
type User struct {
	ID          int64  `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

type Member struct {
	UserID      int64  `json:"userId"`
	DisplayName string `json:"displayName"`
	JoinedAt    int64  `json:"joinedAt"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	CreatedBy int64    `json:"createdBy"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// Participant is a user who owes part of an expense. Value carries the
// method input: share count, percentage or custom amount. It is ignored for
// the equal method.
type Participant struct {
	UserID int64           `json:"userId" validate:"required"`
	Value  decimal.Decimal `json:"value"`
}

// Contributor is a user who paid toward an expense.
type Contributor struct {
	UserID int64           `json:"userId" validate:"required"`
	Paid   decimal.Decimal `json:"paid"`
}

// Share is one participant's computed portion of an expense.
type Share struct {
	UserID int64           `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
}

// Split is one debt: OwerID owes PayerID Amount.
type Split struct {
	ID       string          `json:"id,omitempty"`
	OwerID   int64           `json:"owerId"`
	PayerID  int64           `json:"payerId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Settled  bool            `json:"settled,omitempty"`
}

type Expense struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Method       string          `json:"method"`
	GroupID      string          `json:"groupId,omitempty"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    int64           `json:"createdAt"`
	UpdatedAt    int64           `json:"updatedAt"`
	Settled      bool            `json:"settled"`
	Participants []Participant   `json:"participants"`
	Contributors []Contributor   `json:"contributors"`
	Shares       []Share         `json:"shares"`
	Splits       []Split         `json:"splits"`
}

// CurrencyBalance is a net position in one currency.
// Positive means the viewer is owed money.
type CurrencyBalance struct {
	Currency string          `json:"currency"`
	Net      decimal.Decimal `json:"net"`
}

// CounterpartyBalance is the viewer's net position with one user.
// Positive means the counterparty owes the viewer.
type CounterpartyBalance struct {
	UserID      int64           `json:"userId"`
	DisplayName string          `json:"displayName"`
	Currency    string          `json:"currency"`
	Net         decimal.Decimal `json:"net"`
}

// Transfer is a suggested payment that clears debts.
type Transfer struct {
	FromUserID int64           `json:"fromUserId"`
	ToUserID   int64           `json:"toUserId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

type Settlement struct {
	ID         string          `json:"id"`
	FromUserID int64           `json:"fromUserId"`
	ToUserID   int64           `json:"toUserId"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	SplitCount int64           `json:"splitCount"`
	CreatedAt  int64           `json:"createdAt"`
	CreatedBy  int64           `json:"createdBy"`
}
