package calculator

import (
	"github.com/shopspring/decimal"
)

const centPlaces = 2

var hundred = decimal.NewFromInt(100)

// ComputeSplit divides an expense among its participants and nets each
// participant's share against what they paid.
//
// Algorithm:
//   - share(p) per method, rounded to cents; the last participant with a
//     non-zero weight absorbs the rounding residual so shares sum to Amount
//   - net(u) = paid(u) - share(u) for every participant and contributor
//   - each ower's deficit is prorated across creditors by their surplus
//
// With a single payer this reduces to every other participant owing their
// share directly to the payer. ComputeSplit is pure: identical requests
// produce identical results.
func ComputeSplit(req SplitRequest) (*SplitResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	amounts, err := allocateShares(req)
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(req.Participants))
	for i, p := range req.Participants {
		shares[i] = Share{UserID: p.UserID, Amount: amounts[i]}
	}

	return &SplitResult{
		Currency: req.Currency,
		Shares:   shares,
		Edges:    netEdges(req, shares),
	}, nil
}

func validateRequest(req SplitRequest) error {
	if !req.Amount.IsPositive() {
		return invalid("amount must be positive, got %s", req.Amount)
	}
	if !atCents(req.Amount) {
		return invalid("amount %s has sub-cent precision", req.Amount)
	}
	if req.Currency == "" {
		return invalid("currency is required")
	}
	if !req.Method.Valid() {
		return invalid("unknown split method %q", req.Method)
	}
	if len(req.Contributors) == 0 {
		return invalid("at least one contributor is required")
	}
	if len(req.Participants) == 0 {
		return invalid("enter at least one user to split the expense")
	}

	users := make(map[int64]struct{}, len(req.Participants)+len(req.Contributors))

	paid := decimal.Zero
	seen := make(map[int64]struct{}, len(req.Contributors))
	for _, c := range req.Contributors {
		if _, dup := seen[c.UserID]; dup {
			return invalid("contributor %d listed twice", c.UserID)
		}
		seen[c.UserID] = struct{}{}
		if c.Paid.IsPositive() {
			users[c.UserID] = struct{}{}
		}

		if c.Paid.IsNegative() {
			return invalid("contributor %d paid a negative amount", c.UserID)
		}
		if !atCents(c.Paid) {
			return invalid("contributor %d paid %s with sub-cent precision", c.UserID, c.Paid)
		}
		paid = paid.Add(c.Paid)
	}
	if !paid.Equal(req.Amount) {
		return &ReconciliationError{
			What: "contributions",
			Want: req.Amount.StringFixed(centPlaces),
			Got:  paid.StringFixed(centPlaces),
		}
	}

	seen = make(map[int64]struct{}, len(req.Participants))
	for _, p := range req.Participants {
		if _, dup := seen[p.UserID]; dup {
			return invalid("participant %d listed twice", p.UserID)
		}
		seen[p.UserID] = struct{}{}
		users[p.UserID] = struct{}{}
	}

	if len(users) < 2 {
		return invalid("nothing to split: enter at least one other user")
	}
	return nil
}

// allocateShares returns one amount per participant, in input order.
func allocateShares(req SplitRequest) ([]decimal.Decimal, error) {
	weights := make([]decimal.Decimal, len(req.Participants))

	switch req.Method {
	case MethodEqual:
		for i, p := range req.Participants {
			if p.Allocation != nil {
				if _, err := allocationOf[Equal](p, req.Method); err != nil {
					return nil, err
				}
			}
			weights[i] = decimal.NewFromInt(1)
		}

	case MethodShares:
		total := decimal.Zero
		for i, p := range req.Participants {
			s, err := allocationOf[Shares](p, req.Method)
			if err != nil {
				return nil, err
			}
			if s.Count.IsNegative() {
				return nil, invalid("participant %d has a negative share count", p.UserID)
			}
			weights[i] = s.Count
			total = total.Add(s.Count)
		}
		if !total.IsPositive() {
			return nil, invalid("at least one participant needs a share count above zero")
		}

	case MethodPercentage:
		total := decimal.Zero
		for i, p := range req.Participants {
			pct, err := allocationOf[Percentage](p, req.Method)
			if err != nil {
				return nil, err
			}
			if pct.Percent.IsNegative() {
				return nil, invalid("participant %d has a negative percentage", p.UserID)
			}
			weights[i] = pct.Percent
			total = total.Add(pct.Percent)
		}
		if !total.Equal(hundred) {
			return nil, &ReconciliationError{What: "percentages", Want: "100", Got: total.String()}
		}

	case MethodCustom:
		amounts := make([]decimal.Decimal, len(req.Participants))
		total := decimal.Zero
		for i, p := range req.Participants {
			c, err := allocationOf[Custom](p, req.Method)
			if err != nil {
				return nil, err
			}
			if c.Amount.IsNegative() {
				return nil, invalid("participant %d has a negative amount", p.UserID)
			}
			if !atCents(c.Amount) {
				return nil, invalid("participant %d amount %s has sub-cent precision", p.UserID, c.Amount)
			}
			amounts[i] = c.Amount
			total = total.Add(c.Amount)
		}
		if !total.Equal(req.Amount) {
			return nil, &ReconciliationError{
				What: "custom amounts",
				Want: req.Amount.StringFixed(centPlaces),
				Got:  total.StringFixed(centPlaces),
			}
		}
		return amounts, nil
	}

	return allocate(req.Amount, weights), nil
}

func allocationOf[T Allocation](p Participant, method Method) (T, error) {
	v, ok := p.Allocation.(T)
	if !ok {
		var zero T
		return zero, invalid("participant %d has no %s allocation", p.UserID, method)
	}
	return v, nil
}

// allocate splits total proportionally to weights, in cents. At least one
// weight must be positive. The last positive weight absorbs the residual.
func allocate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	round := func(d decimal.Decimal) decimal.Decimal { return d.Round(centPlaces) }
	if out, ok := distribute(total, weights, round); ok {
		return out
	}
	// Rounding half-up overshot the total (sub-cent portions); truncated
	// portions always leave a non-negative residual.
	truncate := func(d decimal.Decimal) decimal.Decimal { return d.Truncate(centPlaces) }
	out, _ := distribute(total, weights, truncate)
	return out
}

func distribute(total decimal.Decimal, weights []decimal.Decimal, round func(decimal.Decimal) decimal.Decimal) ([]decimal.Decimal, bool) {
	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		sum = sum.Add(w)
		if w.IsPositive() {
			last = i
		}
	}

	out := make([]decimal.Decimal, len(weights))
	for i := range out {
		out[i] = decimal.Zero
	}
	if last < 0 {
		return out, total.IsZero()
	}

	allocated := decimal.Zero
	for i, w := range weights {
		if i == last || !w.IsPositive() {
			continue
		}
		out[i] = round(total.Mul(w).Div(sum))
		allocated = allocated.Add(out[i])
	}
	out[last] = total.Sub(allocated)
	return out, !out[last].IsNegative()
}

type balanceEntry struct {
	userID int64
	net    decimal.Decimal
}

// netEdges turns shares and payments into debt edges. Owers and creditors
// keep their first-appearance order (participants, then contributors).
func netEdges(req SplitRequest, shares []Share) []Edge {
	var order []int64
	net := make(map[int64]decimal.Decimal)
	for _, s := range shares {
		if _, ok := net[s.UserID]; !ok {
			order = append(order, s.UserID)
		}
		net[s.UserID] = net[s.UserID].Sub(s.Amount)
	}
	for _, c := range req.Contributors {
		if _, ok := net[c.UserID]; !ok {
			order = append(order, c.UserID)
		}
		net[c.UserID] = net[c.UserID].Add(c.Paid)
	}

	var owers, creditors []balanceEntry
	for _, id := range order {
		switch n := net[id]; n.Sign() {
		case -1:
			owers = append(owers, balanceEntry{userID: id, net: n.Neg()})
		case 1:
			creditors = append(creditors, balanceEntry{userID: id, net: n})
		}
	}

	return prorate(owers, creditors, req.Currency)
}

// prorate spreads every ower's deficit over the creditors in proportion to
// their surpluses. Portions start truncated to the cent; the cents left over
// are then handed out walking owers and creditors in order, so each row sums
// to the ower's deficit and each column to the creditor's surplus.
func prorate(owers, creditors []balanceEntry, currency string) []Edge {
	total := decimal.Zero
	colLeft := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		total = total.Add(c.net)
		colLeft[j] = c.net
	}

	portions := make([][]decimal.Decimal, len(owers))
	rowLeft := make([]decimal.Decimal, len(owers))
	for i, o := range owers {
		portions[i] = make([]decimal.Decimal, len(creditors))
		rowLeft[i] = o.net
		for j, c := range creditors {
			p, _ := o.net.Mul(c.net).QuoRem(total, centPlaces)
			portions[i][j] = p
			rowLeft[i] = rowLeft[i].Sub(p)
			colLeft[j] = colLeft[j].Sub(p)
		}
	}

	j := 0
	for i := range owers {
		for rowLeft[i].IsPositive() && j < len(creditors) {
			if !colLeft[j].IsPositive() {
				j++
				continue
			}
			cents := decimal.Min(rowLeft[i], colLeft[j])
			portions[i][j] = portions[i][j].Add(cents)
			rowLeft[i] = rowLeft[i].Sub(cents)
			colLeft[j] = colLeft[j].Sub(cents)
		}
	}

	var edges []Edge
	for i, o := range owers {
		for j, c := range creditors {
			if !portions[i][j].IsPositive() {
				continue
			}
			edges = append(edges, Edge{
				OwerID:   o.userID,
				PayerID:  c.userID,
				Amount:   portions[i][j],
				Currency: currency,
			})
		}
	}
	return edges
}

func atCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(centPlaces))
}
