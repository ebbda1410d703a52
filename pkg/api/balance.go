package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const BalanceServiceName = "expensebook.v1.BalanceService"

const (
	BalanceServiceGetBalancesProcedure            = "/expensebook.v1.BalanceService/GetBalances"
	BalanceServiceGetGroupBalancesProcedure       = "/expensebook.v1.BalanceService/GetGroupBalances"
	BalanceServiceListGroupsWithBalancesProcedure = "/expensebook.v1.BalanceService/ListGroupsWithBalances"
	BalanceServiceSettleUpProcedure               = "/expensebook.v1.BalanceService/SettleUp"
	BalanceServiceListSettlementsProcedure        = "/expensebook.v1.BalanceService/ListSettlements"
)

type GetBalancesRequest struct{}

// GetBalancesResponse is the caller's overall balance view. Owed and Owing
// are gross sums of the positive and negative counterparty balances; Owing
// is reported as positive amounts.
type GetBalancesResponse struct {
	Totals         []CurrencyBalance     `json:"totals"`
	Owed           []CurrencyBalance     `json:"owed"`
	Owing          []CurrencyBalance     `json:"owing"`
	Counterparties []CounterpartyBalance `json:"counterparties"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

// MemberBalance is one member's net position inside a group.
type MemberBalance struct {
	UserID      int64             `json:"userId"`
	DisplayName string            `json:"displayName"`
	Balances    []CurrencyBalance `json:"balances"`
}

type GetGroupBalancesResponse struct {
	GroupID   string            `json:"groupId"`
	Balances  []CurrencyBalance `json:"balances"`
	Members   []MemberBalance   `json:"members"`
	Transfers []Transfer        `json:"transfers"`
}

type ListGroupsWithBalancesRequest struct{}

type GroupWithBalance struct {
	Group    Group             `json:"group"`
	Balances []CurrencyBalance `json:"balances"`
}

type ListGroupsWithBalancesResponse struct {
	Groups []GroupWithBalance `json:"groups"`
}

// SettleUpRequest settles every active split between the caller and
// CounterpartyID in Currency.
type SettleUpRequest struct {
	CounterpartyID int64  `json:"counterpartyId" validate:"required"`
	Currency       string `json:"currency" validate:"required,iso4217"`
}

type SettleUpResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ListSettlementsRequest struct{}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

// BalanceServiceHandler is implemented by the balance service.
type BalanceServiceHandler interface {
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	ListGroupsWithBalances(context.Context, *connect.Request[ListGroupsWithBalancesRequest]) (*connect.Response[ListGroupsWithBalancesResponse], error)
	SettleUp(context.Context, *connect.Request[SettleUpRequest]) (*connect.Response[SettleUpResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

// NewBalanceServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(BalanceServiceGetBalancesProcedure, connect.NewUnaryHandler(BalanceServiceGetBalancesProcedure, svc.GetBalances, opts...))
	mux.Handle(BalanceServiceGetGroupBalancesProcedure, connect.NewUnaryHandler(BalanceServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...))
	mux.Handle(BalanceServiceListGroupsWithBalancesProcedure, connect.NewUnaryHandler(BalanceServiceListGroupsWithBalancesProcedure, svc.ListGroupsWithBalances, opts...))
	mux.Handle(BalanceServiceSettleUpProcedure, connect.NewUnaryHandler(BalanceServiceSettleUpProcedure, svc.SettleUp, opts...))
	mux.Handle(BalanceServiceListSettlementsProcedure, connect.NewUnaryHandler(BalanceServiceListSettlementsProcedure, svc.ListSettlements, opts...))
	return "/" + BalanceServiceName + "/", mux
}

// BalanceServiceClient is a client for the BalanceService.
type BalanceServiceClient struct {
	getBalances            *connect.Client[GetBalancesRequest, GetBalancesResponse]
	getGroupBalances       *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	listGroupsWithBalances *connect.Client[ListGroupsWithBalancesRequest, ListGroupsWithBalancesResponse]
	settleUp               *connect.Client[SettleUpRequest, SettleUpResponse]
	listSettlements        *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewBalanceServiceClient constructs a client for the BalanceService.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		getBalances:            connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+BalanceServiceGetBalancesProcedure, opts...),
		getGroupBalances:       connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+BalanceServiceGetGroupBalancesProcedure, opts...),
		listGroupsWithBalances: connect.NewClient[ListGroupsWithBalancesRequest, ListGroupsWithBalancesResponse](httpClient, baseURL+BalanceServiceListGroupsWithBalancesProcedure, opts...),
		settleUp:               connect.NewClient[SettleUpRequest, SettleUpResponse](httpClient, baseURL+BalanceServiceSettleUpProcedure, opts...),
		listSettlements:        connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+BalanceServiceListSettlementsProcedure, opts...),
	}
}

func (c *BalanceServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) ListGroupsWithBalances(ctx context.Context, req *connect.Request[ListGroupsWithBalancesRequest]) (*connect.Response[ListGroupsWithBalancesResponse], error) {
	return c.listGroupsWithBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) SettleUp(ctx context.Context, req *connect.Request[SettleUpRequest]) (*connect.Response[SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}
