package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/expensebook/internal/calculator"
	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/pkg/api"
)

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{UserID: m.UserID, DisplayName: m.DisplayName, JoinedAt: m.JoinedAt}
	}
	return api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) api.Expense {
	participants := make([]api.Participant, len(e.Participants))
	shares := make([]api.Share, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = api.Participant{UserID: p.UserID, Value: p.Value}
		shares[i] = api.Share{UserID: p.UserID, Amount: p.Share}
	}

	contributors := make([]api.Contributor, len(e.Contributors))
	for i, c := range e.Contributors {
		contributors[i] = api.Contributor{UserID: c.UserID, Paid: c.Paid}
	}

	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{
			ID:       s.ID,
			OwerID:   s.OwerID,
			PayerID:  s.PayerID,
			Amount:   s.Amount,
			Currency: s.Currency,
			Settled:  s.Settled,
		}
	}

	return api.Expense{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		Currency:     e.Currency,
		Method:       e.Method,
		GroupID:      e.GroupID,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Settled:      e.Settled,
		Participants: participants,
		Contributors: contributors,
		Shares:       shares,
		Splits:       splits,
	}
}

func toAPIExpenses(expenses []*models.Expense) []api.Expense {
	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return out
}

func toAPICurrencyBalances(balances []calculator.CurrencyBalance) []api.CurrencyBalance {
	out := make([]api.CurrencyBalance, len(balances))
	for i, b := range balances {
		out[i] = api.CurrencyBalance{Currency: b.Currency, Net: b.Net}
	}
	return out
}

func toAPITransfers(transfers []calculator.Transfer) []api.Transfer {
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = api.Transfer{FromUserID: t.FromID, ToUserID: t.ToID, Amount: t.Amount, Currency: t.Currency}
	}
	return out
}

func toAPISettlement(s *models.Settlement) api.Settlement {
	return api.Settlement{
		ID:         s.ID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Currency:   s.Currency,
		Amount:     s.Amount,
		SplitCount: s.SplitCount,
		CreatedAt:  s.CreatedAt,
		CreatedBy:  s.CreatedBy,
	}
}

// toEdges turns stored splits back into calculator edges.
func toEdges(splits []models.Split) []calculator.Edge {
	edges := make([]calculator.Edge, len(splits))
	for i, s := range splits {
		edges[i] = calculator.Edge{
			ExpenseID: s.ExpenseID,
			GroupID:   s.GroupID,
			OwerID:    s.OwerID,
			PayerID:   s.PayerID,
			Amount:    s.Amount,
			Currency:  s.Currency,
		}
	}
	return edges
}

// splitRequest builds calculator input from wire participants and
// contributors. Unknown methods are rejected by the calculator.
func splitRequest(amount decimal.Decimal, currency, method string, participants []api.Participant, contributors []api.Contributor) (calculator.SplitRequest, error) {
	m, err := calculator.ParseMethod(method)
	if err != nil {
		return calculator.SplitRequest{}, err
	}

	req := calculator.SplitRequest{
		Amount:       amount,
		Currency:     currency,
		Method:       m,
		Participants: make([]calculator.Participant, len(participants)),
		Contributors: make([]calculator.Contributor, len(contributors)),
	}
	for i, p := range participants {
		allocation, err := calculator.NewAllocation(m, p.Value)
		if err != nil {
			return calculator.SplitRequest{}, err
		}
		req.Participants[i] = calculator.Participant{UserID: p.UserID, Allocation: allocation}
	}
	for i, c := range contributors {
		req.Contributors[i] = calculator.Contributor{UserID: c.UserID, Paid: c.Paid}
	}
	return req, nil
}

// applySplit copies the split input and result onto an expense record.
func applySplit(e *models.Expense, req calculator.SplitRequest, result *calculator.SplitResult) {
	e.Method = string(req.Method)

	e.Participants = make([]models.ExpenseParticipant, len(req.Participants))
	for i, p := range req.Participants {
		e.Participants[i] = models.ExpenseParticipant{
			UserID: p.UserID,
			Value:  calculator.AllocationValue(p.Allocation),
			Share:  result.Shares[i].Amount,
		}
	}

	e.Contributors = make([]models.ExpenseContributor, len(req.Contributors))
	for i, c := range req.Contributors {
		e.Contributors[i] = models.ExpenseContributor{UserID: c.UserID, Paid: c.Paid}
	}

	e.Splits = make([]models.Split, len(result.Edges))
	for i, edge := range result.Edges {
		e.Splits[i] = models.Split{
			OwerID:   edge.OwerID,
			PayerID:  edge.PayerID,
			Amount:   edge.Amount,
			Currency: edge.Currency,
			GroupID:  e.GroupID,
		}
	}
}
