package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "hash")
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// dinner is a 30.00 expense paid by payer and split equally with ower.
func dinner(payer, ower int64, groupID string) *models.Expense {
	return &models.Expense{
		Description: "Dinner",
		Amount:      dec("30.00"),
		Currency:    "USD",
		Method:      "equal",
		GroupID:     groupID,
		CreatedBy:   payer,
		Participants: []models.ExpenseParticipant{
			{UserID: payer, Share: dec("15.00")},
			{UserID: ower, Share: dec("15.00")},
		},
		Contributors: []models.ExpenseContributor{{UserID: payer, Paid: dec("30.00")}},
		Splits:       []models.Split{{OwerID: ower, PayerID: payer, Amount: dec("15.00")}},
	}
}

func TestNew_RerunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err, "reopening an up-to-date database must not fail")
	require.NoError(t, second.Close())
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")

	t.Run("CreateUser assigns increasing IDs", func(t *testing.T) {
		assert.NotZero(t, alice.ID)
		assert.Greater(t, bob.ID, alice.ID)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Other", "hash"))
		assert.Error(t, err)
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
		assert.Equal(t, "Bob", got.DisplayName)

		_, err = store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetUserByID", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)

		_, err = store.GetUserByID(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("GetUsersByIDs omits unknown users", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, []int64{alice.ID, bob.ID, 9999})
		require.NoError(t, err)
		assert.Len(t, users, 2)
		assert.Equal(t, "Alice", users[alice.ID].DisplayName)

		empty, err := store.GetUsersByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")
	carol := createUser(t, store, "carol@example.com", "Carol")

	group := &models.Group{
		Name:      "Roommates",
		Currency:  "EUR",
		CreatedBy: alice.ID,
		Members:   []models.Member{{UserID: alice.ID}, {UserID: bob.ID}},
	}
	require.NoError(t, store.CreateGroup(ctx, group))
	assert.NotEmpty(t, group.ID)
	assert.NotZero(t, group.CreatedAt)

	t.Run("GetGroup joins member names", func(t *testing.T) {
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roommates", got.Name)
		assert.Equal(t, "EUR", got.Currency)
		require.Len(t, got.Members, 2)
		assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, got.MemberIDs())
		assert.True(t, got.HasMember(bob.ID))
	})

	t.Run("AddGroupMembers ignores existing members", func(t *testing.T) {
		require.NoError(t, store.AddGroupMembers(ctx, group.ID, []int64{bob.ID, carol.ID}))
		got, err := store.GetGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 3)
	})

	t.Run("ListGroupsForUser", func(t *testing.T) {
		groups, err := store.ListGroupsForUser(ctx, carol.ID)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group.ID, groups[0].ID)
	})

	t.Run("DeleteGroup hides the group", func(t *testing.T) {
		require.NoError(t, store.DeleteGroup(ctx, group.ID))

		_, err := store.GetGroup(ctx, group.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		groups, err := store.ListGroupsForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, groups)

		assert.ErrorIs(t, store.DeleteGroup(ctx, group.ID), storage.ErrNotFound)
		assert.ErrorIs(t, store.AddGroupMembers(ctx, group.ID, []int64{carol.ID}), storage.ErrNotFound)
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")

	t.Run("CreateExpense round-trips exact amounts", func(t *testing.T) {
		expense := dinner(alice.ID, bob.ID, "")
		require.NoError(t, store.CreateExpense(ctx, expense))
		assert.NotEmpty(t, expense.ID)
		require.Len(t, expense.Splits, 1)
		assert.Equal(t, expense.ID, expense.Splits[0].ExpenseID)
		assert.Equal(t, "USD", expense.Splits[0].Currency)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", got.Description)
		assert.True(t, got.Amount.Equal(dec("30")), "amount = %s", got.Amount)
		assert.Equal(t, "", got.GroupID)
		require.Len(t, got.Participants, 2)
		assert.Equal(t, alice.ID, got.Participants[0].UserID, "participant order is preserved")
		require.Len(t, got.Contributors, 1)
		require.Len(t, got.Splits, 1)
		assert.Equal(t, bob.ID, got.Splits[0].OwerID)
		assert.True(t, got.Splits[0].Amount.Equal(dec("15")))
	})

	t.Run("failed insert writes nothing", func(t *testing.T) {
		expense := dinner(alice.ID, bob.ID, "")
		expense.Splits = append(expense.Splits, models.Split{OwerID: alice.ID, PayerID: alice.ID, Amount: dec("1")})
		require.Error(t, store.CreateExpense(ctx, expense), "self-edge violates the table check")

		_, err := store.GetExpense(ctx, expense.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ReplaceExpense regenerates splits", func(t *testing.T) {
		expense := dinner(alice.ID, bob.ID, "")
		require.NoError(t, store.CreateExpense(ctx, expense))
		oldSplitID := expense.Splits[0].ID

		expense.Description = "Dinner (fixed)"
		expense.Participants = []models.ExpenseParticipant{{UserID: bob.ID, Share: dec("30")}}
		expense.Splits = []models.Split{{OwerID: bob.ID, PayerID: alice.ID, Amount: dec("30")}}
		require.NoError(t, store.ReplaceExpense(ctx, expense))

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner (fixed)", got.Description)
		assert.Len(t, got.Participants, 1)
		require.Len(t, got.Splits, 1)
		assert.NotEqual(t, oldSplitID, got.Splits[0].ID)
		assert.True(t, got.Splits[0].Amount.Equal(dec("30")))
	})

	t.Run("ReplaceExpense leaves a settled expense untouched", func(t *testing.T) {
		expense := dinner(alice.ID, bob.ID, "")
		require.NoError(t, store.CreateExpense(ctx, expense))
		require.NoError(t, store.SettleExpense(ctx, expense.ID))

		expense.Description = "Dinner (late edit)"
		expense.Splits = []models.Split{{OwerID: bob.ID, PayerID: alice.ID, Amount: dec("15.00")}}
		err := store.ReplaceExpense(ctx, expense)
		assert.ErrorIs(t, err, storage.ErrSettled)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", got.Description)
		require.Len(t, got.Splits, 1)
		assert.True(t, got.Splits[0].Settled)
	})

	t.Run("ReplaceExpense of unknown expense", func(t *testing.T) {
		err := store.ReplaceExpense(ctx, &models.Expense{ID: "missing"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestActiveSplits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")
	carol := createUser(t, store, "carol@example.com", "Carol")

	group := &models.Group{Name: "Trip", Currency: "USD", CreatedBy: alice.ID,
		Members: []models.Member{{UserID: alice.ID}, {UserID: bob.ID}, {UserID: carol.ID}}}
	require.NoError(t, store.CreateGroup(ctx, group))

	direct := dinner(alice.ID, bob.ID, "")
	inGroup := dinner(carol.ID, alice.ID, group.ID)
	deleted := dinner(bob.ID, alice.ID, "")
	settled := dinner(bob.ID, carol.ID, group.ID)
	for _, e := range []*models.Expense{direct, inGroup, deleted, settled} {
		require.NoError(t, store.CreateExpense(ctx, e))
	}
	require.NoError(t, store.DeleteExpense(ctx, deleted.ID))
	require.NoError(t, store.SettleExpense(ctx, settled.ID))

	t.Run("deleted and settled splits are excluded", func(t *testing.T) {
		splits, err := store.ListActiveSplits(ctx, storage.SplitFilter{})
		require.NoError(t, err)
		assert.Len(t, splits, 2)
	})

	t.Run("by user", func(t *testing.T) {
		splits, err := store.ListActiveSplits(ctx, storage.SplitFilter{UserID: bob.ID})
		require.NoError(t, err)
		require.Len(t, splits, 1)
		assert.Equal(t, direct.ID, splits[0].ExpenseID)
	})

	t.Run("by group", func(t *testing.T) {
		splits, err := store.ListActiveSplits(ctx, storage.SplitFilter{GroupID: group.ID})
		require.NoError(t, err)
		require.Len(t, splits, 1)
		assert.Equal(t, group.ID, splits[0].GroupID)
	})

	t.Run("direct only", func(t *testing.T) {
		splits, err := store.ListActiveSplits(ctx, storage.SplitFilter{UserID: alice.ID, Direct: true})
		require.NoError(t, err)
		require.Len(t, splits, 1)
		assert.Equal(t, "", splits[0].GroupID)
	})

	t.Run("deleted expense is hidden", func(t *testing.T) {
		_, err := store.GetExpense(ctx, deleted.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, store.DeleteExpense(ctx, deleted.ID), storage.ErrNotFound)
	})

	t.Run("settled expense stays readable", func(t *testing.T) {
		got, err := store.GetExpense(ctx, settled.ID)
		require.NoError(t, err)
		assert.True(t, got.Settled)
		assert.True(t, got.Splits[0].Settled)
	})

	t.Run("ListExpensesByGroup", func(t *testing.T) {
		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		assert.Len(t, expenses, 2)
	})

	t.Run("ListExpensesBetweenUsers works in both directions", func(t *testing.T) {
		ab, err := store.ListExpensesBetweenUsers(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Len(t, ab, 1)
		assert.Equal(t, direct.ID, ab[0].ID)

		ba, err := store.ListExpensesBetweenUsers(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Len(t, ba, 1)
	})
}

func TestSettleBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")

	// bob owes alice 15, alice owes bob 15 + 5 in a second expense
	first := dinner(alice.ID, bob.ID, "")
	second := dinner(bob.ID, alice.ID, "")
	second.Splits[0].Amount = dec("20")
	second.Participants[1].Share = dec("20")
	second.Participants[0].Share = dec("10")
	require.NoError(t, store.CreateExpense(ctx, first))
	require.NoError(t, store.CreateExpense(ctx, second))

	euro := dinner(alice.ID, bob.ID, "")
	euro.Currency = "EUR"
	require.NoError(t, store.CreateExpense(ctx, euro))

	settlement := &models.Settlement{FromUserID: bob.ID, ToUserID: alice.ID, Currency: "USD", CreatedBy: bob.ID}
	require.NoError(t, store.SettleBetween(ctx, settlement))

	assert.NotEmpty(t, settlement.ID)
	assert.Equal(t, int64(2), settlement.SplitCount)
	assert.Equal(t, alice.ID, settlement.FromUserID, "alice is the net debtor")
	assert.Equal(t, bob.ID, settlement.ToUserID)
	assert.True(t, settlement.Amount.Equal(dec("5")), "amount = %s", settlement.Amount)

	splits, err := store.ListActiveSplits(ctx, storage.SplitFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, splits, 1, "EUR split stays active")
	assert.Equal(t, "EUR", splits[0].Currency)

	got, err := store.GetExpense(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Settled, "fully settled expense is flagged")

	err = store.SettleBetween(ctx, &models.Settlement{FromUserID: bob.ID, ToUserID: alice.ID, Currency: "USD"})
	assert.ErrorIs(t, err, storage.ErrNotFound, "nothing left to settle")

	history, err := store.ListSettlements(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Amount.Equal(dec("5")))
}
