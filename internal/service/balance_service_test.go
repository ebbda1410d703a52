package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensebook/pkg/api"
)

func TestGetBalances(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol := c.register(t, "Alice"), c.register(t, "Bob"), c.register(t, "Carol")

	c.createEqualExpense(t, alice, "", "90.00", alice.id, bob.id, carol.id)

	// Bob pays 10 EUR for himself and Alice
	_, err := c.expenses.CreateExpense(ctx, as(bob, &api.CreateExpenseRequest{
		Description:  "Coffee",
		Amount:       dec("10.00"),
		Currency:     "EUR",
		Method:       "equal",
		Participants: equalParticipants(alice.id, bob.id),
		Contributors: paidBy(bob.id, "10.00"),
	}))
	require.NoError(t, err)

	resp, err := c.balances.GetBalances(ctx, as(alice, &api.GetBalancesRequest{}))
	require.NoError(t, err)
	got := resp.Msg

	require.Len(t, got.Totals, 2)
	assert.Equal(t, "EUR", got.Totals[0].Currency)
	assertAmount(t, "-5", got.Totals[0].Net)
	assert.Equal(t, "USD", got.Totals[1].Currency)
	assertAmount(t, "60", got.Totals[1].Net)

	require.Len(t, got.Owed, 1)
	assertAmount(t, "60", got.Owed[0].Net)
	require.Len(t, got.Owing, 1)
	assertAmount(t, "5", got.Owing[0].Net, "owing is reported as a positive amount")

	require.Len(t, got.Counterparties, 3)
	names := map[string]bool{}
	for _, cp := range got.Counterparties {
		names[cp.DisplayName] = true
	}
	assert.Equal(t, map[string]bool{"Bob": true, "Carol": true}, names)

	t.Run("other side sees the mirror image", func(t *testing.T) {
		resp, err := c.balances.GetBalances(ctx, as(carol, &api.GetBalancesRequest{}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Counterparties, 1)
		assert.Equal(t, alice.id, resp.Msg.Counterparties[0].UserID)
		assertAmount(t, "-30", resp.Msg.Counterparties[0].Net)
	})
}

func TestGetGroupBalances(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol := c.register(t, "Alice"), c.register(t, "Bob"), c.register(t, "Carol")

	created, err := c.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name: "Trip", Currency: "USD", MemberIDs: []int64{bob.id, carol.id},
	}))
	require.NoError(t, err)
	groupID := created.Msg.Group.ID

	c.createEqualExpense(t, alice, groupID, "60.00", alice.id, bob.id, carol.id)
	c.createEqualExpense(t, bob, groupID, "30.00", bob.id, carol.id)
	// Outside the group; must not show up
	c.createEqualExpense(t, carol, "", "100.00", alice.id, carol.id)

	resp, err := c.balances.GetGroupBalances(ctx, as(bob, &api.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	got := resp.Msg

	assert.Equal(t, groupID, got.GroupID)
	require.Len(t, got.Balances, 1)
	assertAmount(t, "-5", got.Balances[0].Net, "Bob owes Alice 20 and is owed 15 by Carol")

	want := map[int64]string{alice.id: "40", bob.id: "-5", carol.id: "-35"}
	require.Len(t, got.Members, 3)
	for _, m := range got.Members {
		require.Len(t, m.Balances, 1, "member %s", m.DisplayName)
		assertAmount(t, want[m.UserID], m.Balances[0].Net, m.DisplayName)
	}

	require.Len(t, got.Transfers, 2)
	assert.Equal(t, carol.id, got.Transfers[0].FromUserID)
	assert.Equal(t, alice.id, got.Transfers[0].ToUserID)
	assertAmount(t, "35", got.Transfers[0].Amount)
	assert.Equal(t, bob.id, got.Transfers[1].FromUserID)
	assert.Equal(t, alice.id, got.Transfers[1].ToUserID)
	assertAmount(t, "5", got.Transfers[1].Amount)

	t.Run("outsiders are rejected", func(t *testing.T) {
		dave := c.register(t, "Dave")
		_, err := c.balances.GetGroupBalances(ctx, as(dave, &api.GetGroupBalancesRequest{GroupID: groupID}))
		assertCode(t, connect.CodePermissionDenied, err)
	})
}

func TestListGroupsWithBalances(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice, bob := c.register(t, "Alice"), c.register(t, "Bob")

	trip, err := c.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name: "Trip", Currency: "USD", MemberIDs: []int64{bob.id},
	}))
	require.NoError(t, err)
	_, err = c.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name: "Flat", Currency: "USD", MemberIDs: []int64{bob.id},
	}))
	require.NoError(t, err)

	c.createEqualExpense(t, bob, trip.Msg.Group.ID, "50.00", alice.id, bob.id)

	resp, err := c.balances.ListGroupsWithBalances(ctx, as(alice, &api.ListGroupsWithBalancesRequest{}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Groups, 2)

	for _, g := range resp.Msg.Groups {
		switch g.Group.Name {
		case "Trip":
			require.Len(t, g.Balances, 1)
			assertAmount(t, "-25", g.Balances[0].Net)
		case "Flat":
			assert.Empty(t, g.Balances, "settled-up groups carry no balance")
		}
	}
}

func TestSettleUp(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice, bob, carol := c.register(t, "Alice"), c.register(t, "Bob"), c.register(t, "Carol")

	created, err := c.groups.CreateGroup(ctx, as(alice, &api.CreateGroupRequest{
		Name: "Trip", Currency: "USD", MemberIDs: []int64{bob.id},
	}))
	require.NoError(t, err)

	// Bob owes Alice 20 + 4 directly, Alice owes Bob 5 in the group
	c.createEqualExpense(t, alice, "", "40.00", alice.id, bob.id)
	c.createEqualExpense(t, bob, created.Msg.Group.ID, "10.00", alice.id, bob.id)
	c.createEqualExpense(t, alice, "", "8.00", alice.id, bob.id)
	// Carol owes Alice 15
	c.createEqualExpense(t, alice, "", "30.00", alice.id, carol.id)

	// Alice initiates but Bob is the debtor
	resp, err := c.balances.SettleUp(ctx, as(alice, &api.SettleUpRequest{CounterpartyID: bob.id, Currency: "USD"}))
	require.NoError(t, err)
	settlement := resp.Msg.Settlement
	assert.NotEmpty(t, settlement.ID)
	assert.Equal(t, bob.id, settlement.FromUserID)
	assert.Equal(t, alice.id, settlement.ToUserID)
	assertAmount(t, "19", settlement.Amount)
	assert.Equal(t, int64(3), settlement.SplitCount)
	assert.Equal(t, alice.id, settlement.CreatedBy)

	balances, err := c.balances.GetBalances(ctx, as(alice, &api.GetBalancesRequest{}))
	require.NoError(t, err)
	require.Len(t, balances.Msg.Counterparties, 1, "only Carol is left")
	assert.Equal(t, carol.id, balances.Msg.Counterparties[0].UserID)

	t.Run("nothing left to settle", func(t *testing.T) {
		_, err := c.balances.SettleUp(ctx, as(bob, &api.SettleUpRequest{CounterpartyID: alice.id, Currency: "USD"}))
		assertCode(t, connect.CodeFailedPrecondition, err)
	})

	t.Run("other currencies are untouched", func(t *testing.T) {
		_, err := c.balances.SettleUp(ctx, as(alice, &api.SettleUpRequest{CounterpartyID: carol.id, Currency: "EUR"}))
		assertCode(t, connect.CodeFailedPrecondition, err)
	})

	t.Run("invalid counterparty", func(t *testing.T) {
		_, err := c.balances.SettleUp(ctx, as(alice, &api.SettleUpRequest{CounterpartyID: alice.id, Currency: "USD"}))
		assertCode(t, connect.CodeInvalidArgument, err)

		_, err = c.balances.SettleUp(ctx, as(alice, &api.SettleUpRequest{CounterpartyID: 9999, Currency: "USD"}))
		assertCode(t, connect.CodeNotFound, err)
	})

	t.Run("settled expenses", func(t *testing.T) {
		list, err := c.expenses.ListExpensesWithUser(ctx, as(alice, &api.ListExpensesWithUserRequest{UserID: bob.id}))
		require.NoError(t, err)
		require.Len(t, list.Msg.Expenses, 3)
		for _, e := range list.Msg.Expenses {
			assert.True(t, e.Settled, "expense %s", e.Description)
		}
	})

	t.Run("ListSettlements", func(t *testing.T) {
		_, err := c.balances.SettleUp(ctx, as(carol, &api.SettleUpRequest{CounterpartyID: alice.id, Currency: "USD"}))
		require.NoError(t, err)

		resp, err := c.balances.ListSettlements(ctx, as(alice, &api.ListSettlementsRequest{}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Settlements, 2)
		assert.Equal(t, carol.id, resp.Msg.Settlements[0].FromUserID, "newest first")

		resp, err = c.balances.ListSettlements(ctx, as(bob, &api.ListSettlementsRequest{}))
		require.NoError(t, err)
		assert.Len(t, resp.Msg.Settlements, 1)
	})

	assert.Equal(t, 2.0, counterValue(t, c, "expensebook_settlements_total", "currency", "USD"))
}
