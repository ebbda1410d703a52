package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensebook/pkg/api"
)

func TestRegister(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()

	resp, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "password123",
	}))
	require.NoError(t, err)
	assert.NotZero(t, resp.Msg.User.ID)
	assert.Equal(t, "alice@example.com", resp.Msg.User.Email)
	assert.NotEmpty(t, resp.Msg.Token)

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{
			name: "duplicate email",
			req:  &api.RegisterRequest{Email: "alice@example.com", DisplayName: "Other", Password: "password123"},
			code: connect.CodeAlreadyExists,
		},
		{
			name: "weak password",
			req:  &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "invalid email",
			req:  &api.RegisterRequest{Email: "not-an-email", DisplayName: "Bob", Password: "password123"},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "missing display name",
			req:  &api.RegisterRequest{Email: "bob@example.com", Password: "password123"},
			code: connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.auth.Register(ctx, connect.NewRequest(tt.req))
			assertCode(t, tt.code, err)
		})
	}
}

func TestLogin(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "Alice")

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "ALICE@example.com",
			Password: "password123",
		}))
		require.NoError(t, err)
		assert.Equal(t, alice.id, resp.Msg.User.ID)
		assert.NotEmpty(t, resp.Msg.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password",
		}))
		assertCode(t, connect.CodeUnauthenticated, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
			Email:    "nobody@example.com",
			Password: "password123",
		}))
		assertCode(t, connect.CodeUnauthenticated, err)
	})
}

func TestGetCurrentUser(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "Alice")

	resp, err := c.auth.GetCurrentUser(ctx, as(alice, &api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, alice.id, resp.Msg.User.ID)
	assert.Equal(t, "Alice", resp.Msg.User.DisplayName)

	_, err = c.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)

	forged := testUser{token: "not-a-jwt"}
	_, err = c.auth.GetCurrentUser(ctx, as(forged, &api.GetCurrentUserRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)
}

func TestProtectedServices_RequireToken(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.groups.ListGroups(context.Background(), connect.NewRequest(&api.ListGroupsRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)

	_, err = c.balances.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{}))
	assertCode(t, connect.CodeUnauthenticated, err)
}
