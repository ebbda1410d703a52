package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/expensebook/internal/auth"
	"github.com/mmynk/expensebook/internal/metrics"
	"github.com/mmynk/expensebook/internal/middleware"
	"github.com/mmynk/expensebook/internal/storage/sqlite"
	"github.com/mmynk/expensebook/pkg/api"
)

type testClients struct {
	auth     *api.AuthServiceClient
	groups   *api.GroupServiceClient
	expenses *api.ExpenseServiceClient
	balances *api.BalanceServiceClient
	metrics  *metrics.Metrics
}

type testUser struct {
	id    int64
	token string
}

// setupTestServer serves every service over a temp SQLite database.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	m := metrics.New()

	public := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), middleware.MetricsInterceptor(m))
	private := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.MetricsInterceptor(m))

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, slog.Default()), public))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store), private))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, m), private))
	mux.Handle(api.NewBalanceServiceHandler(NewBalanceService(store, m), private))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testClients{
		auth:     api.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   api.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses: api.NewExpenseServiceClient(http.DefaultClient, server.URL),
		balances: api.NewBalanceServiceClient(http.DefaultClient, server.URL),
		metrics:  m,
	}
}

func (c *testClients) register(t *testing.T, name string) testUser {
	t.Helper()
	resp, err := c.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       strings.ToLower(name) + "@example.com",
		DisplayName: name,
		Password:    "password123",
	}))
	require.NoError(t, err, "Register(%s)", name)
	return testUser{id: resp.Msg.User.ID, token: resp.Msg.Token}
}

// as builds a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.token)
	return req
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s %s", want, got, fmt.Sprint(msgAndArgs...))
}

func assertCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func equalParticipants(ids ...int64) []api.Participant {
	out := make([]api.Participant, len(ids))
	for i, id := range ids {
		out[i] = api.Participant{UserID: id}
	}
	return out
}

func paidBy(id int64, amount string) []api.Contributor {
	return []api.Contributor{{UserID: id, Paid: dec(amount)}}
}

// createEqualExpense records amount USD paid by payer and split equally.
func (c *testClients) createEqualExpense(t *testing.T, payer testUser, groupID, amount string, ids ...int64) api.Expense {
	t.Helper()
	resp, err := c.expenses.CreateExpense(context.Background(), as(payer, &api.CreateExpenseRequest{
		Description:  "Dinner",
		Amount:       dec(amount),
		Currency:     "USD",
		Method:       "equal",
		GroupID:      groupID,
		Participants: equalParticipants(ids...),
		Contributors: paidBy(payer.id, amount),
	}))
	require.NoError(t, err, "CreateExpense")
	return resp.Msg.Expense
}

// counterValue reads one labelled counter from the metrics registry.
func counterValue(t *testing.T, c *testClients, name, label, value string) float64 {
	t.Helper()
	families, err := c.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
