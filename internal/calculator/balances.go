package calculator

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// CounterpartyBalance is the viewer's net position with one other user in
// one currency. Positive = the counterparty owes the viewer.
type CounterpartyBalance struct {
	CounterpartyID int64
	Currency       string
	Net            decimal.Decimal
}

// CurrencyBalance is the viewer's net position in one currency.
type CurrencyBalance struct {
	Currency string
	Net      decimal.Decimal
}

// Summary is the viewer's complete balance view: totals per currency plus
// the non-zero counterparties, split into what the viewer is owed and owes.
type Summary struct {
	Totals         []CurrencyBalance
	Counterparties []CounterpartyBalance
	// Owed and Owing are the gross per-currency sums of positive and negative
	// counterparty nets; Owing amounts are reported as positive numbers.
	Owed  []CurrencyBalance
	Owing []CurrencyBalance
}

// Transfer is a suggested payment that clears debts within one currency.
type Transfer struct {
	FromID   int64 // Person who owes
	ToID     int64 // Person who is owed
	Amount   decimal.Decimal
	Currency string
}

type counterpartyKey struct {
	counterparty int64
	currency     string
}

// checkEdge rejects edges that ComputeSplit can never produce.
func checkEdge(e Edge) error {
	if e.OwerID == e.PayerID {
		return &InvariantViolation{Reason: fmt.Sprintf("self-edge for user %d in expense %q", e.OwerID, e.ExpenseID)}
	}
	if !e.Amount.IsPositive() {
		return &InvariantViolation{Reason: fmt.Sprintf("non-positive amount %s in expense %q", e.Amount, e.ExpenseID)}
	}
	if e.Currency == "" {
		return &InvariantViolation{Reason: fmt.Sprintf("edge without currency in expense %q", e.ExpenseID)}
	}
	return nil
}

// AggregateByCounterparty nets every edge touching viewerID per
// (counterparty, currency). Edges where the viewer owes subtract, edges
// where the viewer paid add. Zero nets are dropped. The result is sorted by
// currency, then counterparty.
func AggregateByCounterparty(edges []Edge, viewerID int64) ([]CounterpartyBalance, error) {
	nets := make(map[counterpartyKey]decimal.Decimal)
	for _, e := range edges {
		if err := checkEdge(e); err != nil {
			return nil, err
		}
		switch viewerID {
		case e.OwerID:
			k := counterpartyKey{counterparty: e.PayerID, currency: e.Currency}
			nets[k] = nets[k].Sub(e.Amount)
		case e.PayerID:
			k := counterpartyKey{counterparty: e.OwerID, currency: e.Currency}
			nets[k] = nets[k].Add(e.Amount)
		}
	}

	result := make([]CounterpartyBalance, 0, len(nets))
	for k, net := range nets {
		if net.IsZero() {
			continue
		}
		result = append(result, CounterpartyBalance{
			CounterpartyID: k.counterparty,
			Currency:       k.currency,
			Net:            net,
		})
	}
	slices.SortFunc(result, func(a, b CounterpartyBalance) int {
		if c := cmp.Compare(a.Currency, b.Currency); c != 0 {
			return c
		}
		return cmp.Compare(a.CounterpartyID, b.CounterpartyID)
	})
	return result, nil
}

// AggregateByCurrency nets every edge touching viewerID per currency,
// across all counterparties. Zero nets are dropped; sorted by currency.
func AggregateByCurrency(edges []Edge, viewerID int64) ([]CurrencyBalance, error) {
	nets := make(map[string]decimal.Decimal)
	for _, e := range edges {
		if err := checkEdge(e); err != nil {
			return nil, err
		}
		switch viewerID {
		case e.OwerID:
			nets[e.Currency] = nets[e.Currency].Sub(e.Amount)
		case e.PayerID:
			nets[e.Currency] = nets[e.Currency].Add(e.Amount)
		}
	}
	return currencyBalances(nets), nil
}

// AggregateByGroup is AggregateByCurrency restricted to edges of groupID.
// An empty groupID selects direct (non-group) expenses.
func AggregateByGroup(edges []Edge, groupID string, viewerID int64) ([]CurrencyBalance, error) {
	scoped := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.GroupID == groupID {
			scoped = append(scoped, e)
		}
	}
	return AggregateByCurrency(scoped, viewerID)
}

// Summarize builds the viewer's full balance view in one pass over edges.
func Summarize(edges []Edge, viewerID int64) (*Summary, error) {
	counterparties, err := AggregateByCounterparty(edges, viewerID)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	owed := make(map[string]decimal.Decimal)
	owing := make(map[string]decimal.Decimal)
	for _, cp := range counterparties {
		totals[cp.Currency] = totals[cp.Currency].Add(cp.Net)
		if cp.Net.IsPositive() {
			owed[cp.Currency] = owed[cp.Currency].Add(cp.Net)
		} else {
			owing[cp.Currency] = owing[cp.Currency].Sub(cp.Net)
		}
	}

	return &Summary{
		Totals:         currencyBalances(totals),
		Counterparties: counterparties,
		Owed:           currencyBalances(owed),
		Owing:          currencyBalances(owing),
	}, nil
}

// SimplifyDebts computes, per currency, a short list of transfers that
// settles every user's net position.
//
// Algorithm:
//   - net(u) = sum of amounts owed to u - sum of amounts u owes
//   - creditors (net > 0) and debtors (net < 0) are sorted largest first,
//     ties broken by user id
//   - greedy matching: the current debtor pays the current creditor the
//     smaller of the two outstanding amounts
func SimplifyDebts(edges []Edge) ([]Transfer, error) {
	nets := make(map[string]map[int64]decimal.Decimal)
	for _, e := range edges {
		if err := checkEdge(e); err != nil {
			return nil, err
		}
		byUser, ok := nets[e.Currency]
		if !ok {
			byUser = make(map[int64]decimal.Decimal)
			nets[e.Currency] = byUser
		}
		byUser[e.PayerID] = byUser[e.PayerID].Add(e.Amount)
		byUser[e.OwerID] = byUser[e.OwerID].Sub(e.Amount)
	}

	currencies := make([]string, 0, len(nets))
	for c := range nets {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)

	var transfers []Transfer
	for _, currency := range currencies {
		transfers = append(transfers, simplifyCurrency(currency, nets[currency])...)
	}
	return transfers, nil
}

func simplifyCurrency(currency string, nets map[int64]decimal.Decimal) []Transfer {
	var creditors, debtors []balanceEntry
	for id, net := range nets {
		switch net.Sign() {
		case 1:
			creditors = append(creditors, balanceEntry{userID: id, net: net})
		case -1:
			debtors = append(debtors, balanceEntry{userID: id, net: net.Neg()})
		}
	}
	largestFirst := func(a, b balanceEntry) int {
		if c := b.net.Cmp(a.net); c != 0 {
			return c
		}
		return cmp.Compare(a.userID, b.userID)
	}
	slices.SortFunc(creditors, largestFirst)
	slices.SortFunc(debtors, largestFirst)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.net, creditor.net)
		transfers = append(transfers, Transfer{
			FromID:   debtor.userID,
			ToID:     creditor.userID,
			Amount:   amount,
			Currency: currency,
		})

		debtor.net = debtor.net.Sub(amount)
		creditor.net = creditor.net.Sub(amount)
		if debtor.net.IsZero() {
			i++
		}
		if creditor.net.IsZero() {
			j++
		}
	}
	return transfers
}

func currencyBalances(nets map[string]decimal.Decimal) []CurrencyBalance {
	result := make([]CurrencyBalance, 0, len(nets))
	for currency, net := range nets {
		if net.IsZero() {
			continue
		}
		result = append(result, CurrencyBalance{Currency: currency, Net: net})
	}
	slices.SortFunc(result, func(a, b CurrencyBalance) int {
		return cmp.Compare(a.Currency, b.Currency)
	})
	return result
}
