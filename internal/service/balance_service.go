package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/expensebook/internal/calculator"
	"github.com/mmynk/expensebook/internal/metrics"
	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/internal/storage"
	"github.com/mmynk/expensebook/pkg/api"
)

// BalanceService implements the Connect BalanceService. Balances are never
// stored; every call aggregates the active splits read in one query.
type BalanceService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

var _ api.BalanceServiceHandler = (*BalanceService)(nil)

// NewBalanceService creates a new BalanceService with the given storage backend.
func NewBalanceService(store storage.Store, m *metrics.Metrics) *BalanceService {
	return &BalanceService{store: store, metrics: m}
}

// GetBalances returns the caller's balances across all groups and direct
// expenses.
func (s *BalanceService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	splits, err := s.store.ListActiveSplits(ctx, storage.SplitFilter{UserID: userID})
	if err != nil {
		slog.Error("GetBalances failed - could not list splits", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	summary, err := calculator.Summarize(toEdges(splits), userID)
	if err != nil {
		slog.Error("GetBalances failed - malformed split", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	ids := make([]int64, 0, len(summary.Counterparties))
	for _, cp := range summary.Counterparties {
		ids = append(ids, cp.CounterpartyID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, toConnectError(err)
	}

	counterparties := make([]api.CounterpartyBalance, len(summary.Counterparties))
	for i, cp := range summary.Counterparties {
		counterparties[i] = api.CounterpartyBalance{
			UserID:   cp.CounterpartyID,
			Currency: cp.Currency,
			Net:      cp.Net,
		}
		if u, ok := users[cp.CounterpartyID]; ok {
			counterparties[i].DisplayName = u.DisplayName
		}
	}

	slog.Info("GetBalances successful",
		"user_id", userID,
		"splits_count", len(splits),
		"counterparties_count", len(counterparties),
	)

	return connect.NewResponse(&api.GetBalancesResponse{
		Totals:         toAPICurrencyBalances(summary.Totals),
		Owed:           toAPICurrencyBalances(summary.Owed),
		Owing:          toAPICurrencyBalances(summary.Owing),
		Counterparties: counterparties,
	}), nil
}

// GetGroupBalances returns the caller's balance in a group, every member's
// balance and a short list of transfers that would settle the group.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID, "user_id", userID)

	group, err := memberGroup(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	splits, err := s.store.ListActiveSplits(ctx, storage.SplitFilter{GroupID: groupID})
	if err != nil {
		slog.Error("GetGroupBalances failed - could not list splits", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	edges := toEdges(splits)

	own, err := calculator.AggregateByGroup(edges, groupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	members := make([]api.MemberBalance, len(group.Members))
	for i, m := range group.Members {
		balances, err := calculator.AggregateByCurrency(edges, m.UserID)
		if err != nil {
			return nil, toConnectError(err)
		}
		members[i] = api.MemberBalance{
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Balances:    toAPICurrencyBalances(balances),
		}
	}

	transfers, err := calculator.SimplifyDebts(edges)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"splits_count", len(splits),
		"transfers_count", len(transfers),
	)

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		GroupID:   groupID,
		Balances:  toAPICurrencyBalances(own),
		Members:   members,
		Transfers: toAPITransfers(transfers),
	}), nil
}

// ListGroupsWithBalances lists the caller's groups with the caller's
// per-currency balance in each.
func (s *BalanceService) ListGroupsWithBalances(ctx context.Context, req *connect.Request[api.ListGroupsWithBalancesRequest]) (*connect.Response[api.ListGroupsWithBalancesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		slog.Error("ListGroupsWithBalances failed - could not list groups", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	splits, err := s.store.ListActiveSplits(ctx, storage.SplitFilter{UserID: userID})
	if err != nil {
		return nil, toConnectError(err)
	}
	edges := toEdges(splits)

	out := make([]api.GroupWithBalance, len(groups))
	for i, g := range groups {
		balances, err := calculator.AggregateByGroup(edges, g.ID, userID)
		if err != nil {
			return nil, toConnectError(err)
		}
		out[i] = api.GroupWithBalance{Group: toAPIGroup(g), Balances: toAPICurrencyBalances(balances)}
	}

	return connect.NewResponse(&api.ListGroupsWithBalancesResponse{Groups: out}), nil
}

// SettleUp settles every active split between the caller and a
// counterparty in one currency, across groups and direct expenses.
func (s *BalanceService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}
	if req.Msg.CounterpartyID == userID {
		return nil, invalidArgument("cannot settle up with yourself")
	}

	if _, err := s.store.GetUserByID(ctx, req.Msg.CounterpartyID); err != nil {
		return nil, toConnectError(err)
	}

	settlement := &models.Settlement{
		FromUserID: userID,
		ToUserID:   req.Msg.CounterpartyID,
		Currency:   req.Msg.Currency,
		CreatedBy:  userID,
	}
	if err := s.store.SettleBetween(ctx, settlement); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, toConnectError(errNothingToSettle)
		}
		slog.Error("SettleUp failed", "user_id", userID, "counterparty_id", req.Msg.CounterpartyID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.ObserveSettlement(settlement.Currency)

	slog.Info("Settled up",
		"settlement_id", settlement.ID,
		"from_user_id", settlement.FromUserID,
		"to_user_id", settlement.ToUserID,
		"amount", settlement.Amount,
		"currency", settlement.Currency,
		"splits_count", settlement.SplitCount,
	)

	return connect.NewResponse(&api.SettleUpResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns the caller's settle-up history, newest first.
func (s *BalanceService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlements(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}
