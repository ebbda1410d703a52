package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

const ExpenseServiceName = "expensebook.v1.ExpenseService"

const (
	ExpenseServiceComputeSplitProcedure         = "/expensebook.v1.ExpenseService/ComputeSplit"
	ExpenseServiceCreateExpenseProcedure        = "/expensebook.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure           = "/expensebook.v1.ExpenseService/GetExpense"
	ExpenseServiceUpdateExpenseProcedure        = "/expensebook.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure        = "/expensebook.v1.ExpenseService/DeleteExpense"
	ExpenseServiceSettleExpenseProcedure        = "/expensebook.v1.ExpenseService/SettleExpense"
	ExpenseServiceListGroupExpensesProcedure    = "/expensebook.v1.ExpenseService/ListGroupExpenses"
	ExpenseServiceListExpensesWithUserProcedure = "/expensebook.v1.ExpenseService/ListExpensesWithUser"
)

// ComputeSplitRequest previews a split without storing anything.
type ComputeSplitRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" validate:"required,iso4217"`
	Method       string          `json:"method" validate:"required,oneof=equal shares parts percentage custom"`
	Participants []Participant   `json:"participants" validate:"required,min=1,dive"`
	Contributors []Contributor   `json:"contributors" validate:"required,min=1,dive"`
}

type ComputeSplitResponse struct {
	Shares []Share `json:"shares"`
	Splits []Split `json:"splits"`
}

type CreateExpenseRequest struct {
	Description  string          `json:"description" validate:"required,max=200"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" validate:"required,iso4217"`
	Method       string          `json:"method" validate:"required,oneof=equal shares parts percentage custom"`
	GroupID      string          `json:"groupId,omitempty"`
	Participants []Participant   `json:"participants" validate:"required,min=1,dive"`
	Contributors []Contributor   `json:"contributors" validate:"required,min=1,dive"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type GetExpenseResponse struct {
	Expense Expense `json:"expense"`
}

// UpdateExpenseRequest replaces the description, participants and
// contributors of an expense. Amount, currency and method cannot change.
type UpdateExpenseRequest struct {
	ExpenseID    string        `json:"expenseId" validate:"required"`
	Description  string        `json:"description" validate:"required,max=200"`
	Participants []Participant `json:"participants" validate:"required,min=1,dive"`
	Contributors []Contributor `json:"contributors" validate:"required,min=1,dive"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type DeleteExpenseResponse struct{}

type SettleExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type SettleExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListGroupExpensesRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type ListGroupExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

// ListExpensesWithUserRequest lists the caller's expenses shared with one
// other user.
type ListExpensesWithUserRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

type ListExpensesWithUserResponse struct {
	Expenses []Expense `json:"expenses"`
}

// ExpenseServiceHandler is implemented by the expense service.
type ExpenseServiceHandler interface {
	ComputeSplit(context.Context, *connect.Request[ComputeSplitRequest]) (*connect.Response[ComputeSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	SettleExpense(context.Context, *connect.Request[SettleExpenseRequest]) (*connect.Response[SettleExpenseResponse], error)
	ListGroupExpenses(context.Context, *connect.Request[ListGroupExpensesRequest]) (*connect.Response[ListGroupExpensesResponse], error)
	ListExpensesWithUser(context.Context, *connect.Request[ListExpensesWithUserRequest]) (*connect.Response[ListExpensesWithUserResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ExpenseServiceComputeSplitProcedure, connect.NewUnaryHandler(ExpenseServiceComputeSplitProcedure, svc.ComputeSplit, opts...))
	mux.Handle(ExpenseServiceCreateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...))
	mux.Handle(ExpenseServiceGetExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...))
	mux.Handle(ExpenseServiceUpdateExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...))
	mux.Handle(ExpenseServiceDeleteExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...))
	mux.Handle(ExpenseServiceSettleExpenseProcedure, connect.NewUnaryHandler(ExpenseServiceSettleExpenseProcedure, svc.SettleExpense, opts...))
	mux.Handle(ExpenseServiceListGroupExpensesProcedure, connect.NewUnaryHandler(ExpenseServiceListGroupExpensesProcedure, svc.ListGroupExpenses, opts...))
	mux.Handle(ExpenseServiceListExpensesWithUserProcedure, connect.NewUnaryHandler(ExpenseServiceListExpensesWithUserProcedure, svc.ListExpensesWithUser, opts...))
	return "/" + ExpenseServiceName + "/", mux
}

// ExpenseServiceClient is a client for the ExpenseService.
type ExpenseServiceClient struct {
	computeSplit         *connect.Client[ComputeSplitRequest, ComputeSplitResponse]
	createExpense        *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	getExpense           *connect.Client[GetExpenseRequest, GetExpenseResponse]
	updateExpense        *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense        *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	settleExpense        *connect.Client[SettleExpenseRequest, SettleExpenseResponse]
	listGroupExpenses    *connect.Client[ListGroupExpensesRequest, ListGroupExpensesResponse]
	listExpensesWithUser *connect.Client[ListExpensesWithUserRequest, ListExpensesWithUserResponse]
}

// NewExpenseServiceClient constructs a client for the ExpenseService.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		computeSplit:         connect.NewClient[ComputeSplitRequest, ComputeSplitResponse](httpClient, baseURL+ExpenseServiceComputeSplitProcedure, opts...),
		createExpense:        connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:           connect.NewClient[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		updateExpense:        connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:        connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		settleExpense:        connect.NewClient[SettleExpenseRequest, SettleExpenseResponse](httpClient, baseURL+ExpenseServiceSettleExpenseProcedure, opts...),
		listGroupExpenses:    connect.NewClient[ListGroupExpensesRequest, ListGroupExpensesResponse](httpClient, baseURL+ExpenseServiceListGroupExpensesProcedure, opts...),
		listExpensesWithUser: connect.NewClient[ListExpensesWithUserRequest, ListExpensesWithUserResponse](httpClient, baseURL+ExpenseServiceListExpensesWithUserProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) ComputeSplit(ctx context.Context, req *connect.Request[ComputeSplitRequest]) (*connect.Response[ComputeSplitResponse], error) {
	return c.computeSplit.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) SettleExpense(ctx context.Context, req *connect.Request[SettleExpenseRequest]) (*connect.Response[SettleExpenseResponse], error) {
	return c.settleExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListGroupExpenses(ctx context.Context, req *connect.Request[ListGroupExpensesRequest]) (*connect.Response[ListGroupExpensesResponse], error) {
	return c.listGroupExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpensesWithUser(ctx context.Context, req *connect.Request[ListExpensesWithUserRequest]) (*connect.Response[ListExpensesWithUserResponse], error) {
	return c.listExpensesWithUser.CallUnary(ctx, req)
}
