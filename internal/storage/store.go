// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/expensebook/internal/models"
)

// ErrNotFound is returned when a requested record does not exist or has been
// logically deleted.
var ErrNotFound = errors.New("not found")

// ErrSettled is returned when a write targets a record that has already been
// settled.
var ErrSettled = errors.New("already settled")

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts the user and populates user.ID.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound when the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to user.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	// The group.ID and CreatedAt fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns ErrNotFound for missing or deleted groups.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns every active group userID is a member of.
	ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error)

	// AddGroupMembers adds users to a group. Existing members are ignored.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []int64) error

	// DeleteGroup marks a group as deleted.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses and the splits generated from them.
type ExpenseStore interface {
	// CreateExpense writes the expense, its participants, contributors and
	// splits in one transaction. IDs and timestamps are populated.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns ErrNotFound for missing or deleted expenses.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ReplaceExpense overwrites description, participants, contributors and
	// splits of an existing expense in one transaction.
	ReplaceExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense flags the expense and all of its splits as deleted.
	DeleteExpense(ctx context.Context, expenseID string) error

	// SettleExpense flags the expense and all of its splits as settled.
	SettleExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns active expenses of a group, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpensesBetweenUsers returns active expenses that have a split
	// between the two users in either direction, newest first.
	ListExpensesBetweenUsers(ctx context.Context, userA, userB int64) ([]*models.Expense, error)

	// ListActiveSplits returns the splits that are neither deleted nor settled
	// and match the filter.
	ListActiveSplits(ctx context.Context, filter SplitFilter) ([]models.Split, error)

	// SettleBetween marks every active split between two users in one
	// currency as settled and records the settlement in the same
	// transaction. settlement.SplitCount is populated.
	SettleBetween(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements returns the settlements involving userID, newest first.
	ListSettlements(ctx context.Context, userID int64) ([]*models.Settlement, error)
}

// SplitFilter narrows ListActiveSplits. Zero values match everything.
type SplitFilter struct {
	// UserID selects splits where the user is the ower or the payer.
	UserID int64

	// GroupID selects splits of one group. Use Direct for non-group splits.
	GroupID string

	// Direct selects splits of expenses without a group.
	Direct bool
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}
