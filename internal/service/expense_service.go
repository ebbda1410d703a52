package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"

	"github.com/mmynk/expensebook/internal/calculator"
	"github.com/mmynk/expensebook/internal/metrics"
	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/internal/storage"
	"github.com/mmynk/expensebook/pkg/api"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: store, metrics: m}
}

// computeSplit runs the calculator and records the outcome.
func (s *ExpenseService) computeSplit(req calculator.SplitRequest) (*calculator.SplitResult, error) {
	result, err := calculator.ComputeSplit(req)
	s.metrics.ObserveSplit(string(req.Method), err)
	return result, err
}

// ComputeSplit previews the shares and debts of an expense without storing it.
func (s *ExpenseService) ComputeSplit(ctx context.Context, req *connect.Request[api.ComputeSplitRequest]) (*connect.Response[api.ComputeSplitResponse], error) {
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}

	splitReq, err := splitRequest(req.Msg.Amount, req.Msg.Currency, req.Msg.Method, req.Msg.Participants, req.Msg.Contributors)
	if err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.computeSplit(splitReq)
	if err != nil {
		slog.Info("ComputeSplit rejected", "method", req.Msg.Method, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.ComputeSplitResponse{
		Shares: make([]api.Share, len(result.Shares)),
		Splits: make([]api.Split, len(result.Edges)),
	}
	for i, share := range result.Shares {
		resp.Shares[i] = api.Share{UserID: share.UserID, Amount: share.Amount}
	}
	for i, edge := range result.Edges {
		slog.Debug("Debt edge", "ower", edge.OwerID, "payer", edge.PayerID, "amount", edge.Amount)
		resp.Splits[i] = api.Split{OwerID: edge.OwerID, PayerID: edge.PayerID, Amount: edge.Amount, Currency: edge.Currency}
	}
	return connect.NewResponse(resp), nil
}

// CreateExpense splits and stores a new expense. Users of a group expense
// who are not yet members are added to the group.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}

	slog.Info("CreateExpense request received",
		"user_id", userID,
		"group_id", req.Msg.GroupID,
		"method", req.Msg.Method,
		"participants_count", len(req.Msg.Participants),
	)

	expense := &models.Expense{
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		Currency:    req.Msg.Currency,
		GroupID:     req.Msg.GroupID,
		CreatedBy:   userID,
	}

	splitReq, err := splitRequest(req.Msg.Amount, req.Msg.Currency, req.Msg.Method, req.Msg.Participants, req.Msg.Contributors)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.checkExpenseUsers(ctx, userID, expense.GroupID, splitReq); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.computeSplit(splitReq)
	if err != nil {
		slog.Info("CreateExpense rejected", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	applySplit(expense, splitReq, result)

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	s.autoAddUsersToGroup(ctx, expense)

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"currency", expense.Currency,
		"splits_count", len(expense.Splits),
	)

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpense retrieves an expense visible to the caller.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	expense, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense replaces the description, participants and contributors of
// an unsettled expense and regenerates all of its splits. Amount, currency
// and method are kept.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}

	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if existing.Settled {
		return nil, toConnectError(errAlreadySettled)
	}

	slog.Info("UpdateExpense request received",
		"expense_id", existing.ID,
		"user_id", userID,
		"participants_count", len(req.Msg.Participants),
	)

	splitReq, err := splitRequest(existing.Amount, existing.Currency, existing.Method, req.Msg.Participants, req.Msg.Contributors)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.checkExpenseUsers(ctx, userID, existing.GroupID, splitReq); err != nil {
		return nil, toConnectError(err)
	}

	result, err := s.computeSplit(splitReq)
	if err != nil {
		slog.Info("UpdateExpense rejected", "expense_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}

	existing.Description = req.Msg.Description
	applySplit(existing, splitReq, result)

	if err := s.store.ReplaceExpense(ctx, existing); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", existing.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.autoAddUsersToGroup(ctx, existing)

	// Reload to pick up the generated split IDs
	updated, err := s.store.GetExpense(ctx, existing.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Expense updated", "expense_id", updated.ID, "splits_count", len(updated.Splits))
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(updated)}), nil
}

// DeleteExpense logically deletes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	expense, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// SettleExpense marks an expense and all of its splits as settled.
func (s *ExpenseService) SettleExpense(ctx context.Context, req *connect.Request[api.SettleExpenseRequest]) (*connect.Response[api.SettleExpenseResponse], error) {
	expense, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if expense.Settled {
		return nil, toConnectError(errAlreadySettled)
	}

	if err := s.store.SettleExpense(ctx, expense.ID); err != nil {
		slog.Error("SettleExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	settled, err := s.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Expense settled", "expense_id", settled.ID)
	return connect.NewResponse(&api.SettleExpenseResponse{Expense: toAPIExpense(settled)}), nil
}

// ListGroupExpenses lists the active expenses of a group the caller belongs to.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}

	if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListGroupExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListGroupExpenses successful", "group_id", req.Msg.GroupID, "count", len(expenses))
	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: toAPIExpenses(expenses)}), nil
}

// ListExpensesWithUser lists expenses with a debt between the caller and
// another user, in groups and outside them.
func (s *ExpenseService) ListExpensesWithUser(ctx context.Context, req *connect.Request[api.ListExpensesWithUserRequest]) (*connect.Response[api.ListExpensesWithUserResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMessage(req.Msg); err != nil {
		return nil, err
	}
	if req.Msg.UserID == userID {
		return nil, invalidArgument("cannot list expenses with yourself")
	}

	expenses, err := s.store.ListExpensesBetweenUsers(ctx, userID, req.Msg.UserID)
	if err != nil {
		slog.Error("ListExpensesWithUser failed", "user_id", userID, "other_user_id", req.Msg.UserID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.ListExpensesWithUserResponse{Expenses: toAPIExpenses(expenses)}), nil
}

// loadExpense fetches an expense and checks that the caller may see it:
// group expenses are visible to group members, direct expenses to the users
// on them.
func (s *ExpenseService) loadExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if expenseID == "" {
		return nil, invalidArgument("expense_id required")
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		slog.Warn("Expense lookup failed", "expense_id", expenseID, "error", err)
		return nil, toConnectError(err)
	}

	if expense.Involves(userID) {
		return expense, nil
	}
	if expense.GroupID != "" {
		if _, err := memberGroup(ctx, s.store, expense.GroupID, userID); err == nil {
			return expense, nil
		}
	}
	return nil, toConnectError(errNotInvolved)
}

// checkExpenseUsers verifies that every referenced user exists and that the
// caller may record the expense: as a member of its group, or as one of the
// users on a direct expense.
func (s *ExpenseService) checkExpenseUsers(ctx context.Context, callerID int64, groupID string, req calculator.SplitRequest) error {
	ids := splitUserIDs(req)

	if groupID != "" {
		if _, err := memberGroup(ctx, s.store, groupID, callerID); err != nil {
			return err
		}
	} else if !slices.Contains(ids, callerID) {
		return errNotInvolved
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return invalidArgument("unknown user %d", id)
		}
	}
	return nil
}

// autoAddUsersToGroup adds any expense users not already in the group.
// Failures are logged; the expense itself is already stored.
func (s *ExpenseService) autoAddUsersToGroup(ctx context.Context, expense *models.Expense) {
	if expense.GroupID == "" {
		return
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		slog.Warn("autoAddUsersToGroup: failed to get group", "group_id", expense.GroupID, "error", err)
		return
	}

	var newMembers []int64
	for _, id := range expense.UserIDs() {
		if !group.HasMember(id) {
			newMembers = append(newMembers, id)
		}
	}
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, group.ID, newMembers); err != nil {
		slog.Error("autoAddUsersToGroup: failed to add members", "group_id", group.ID, "error", err)
		return
	}
	slog.Info("Auto-added expense users to group", "group_id", group.ID, "new_members", newMembers)
}

// memberGroup loads a group and checks that userID belongs to it.
func memberGroup(ctx context.Context, store storage.GroupStore, groupID string, userID int64) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("group %s: %w", groupID, errNotGroupMember)
	}
	return group, nil
}

func splitUserIDs(req calculator.SplitRequest) []int64 {
	var ids []int64
	for _, p := range req.Participants {
		if !slices.Contains(ids, p.UserID) {
			ids = append(ids, p.UserID)
		}
	}
	for _, c := range req.Contributors {
		if !slices.Contains(ids, c.UserID) {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}
