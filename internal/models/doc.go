// Package models defines the persisted records of expensebook.
//
// # Records
//
//   - User: a registered account; user IDs are integers
//   - Group: a named set of members sharing expenses in a default currency
//   - Expense: one shared cost with its participants, contributors and splits
//   - Split: one debt edge generated from an expense
//   - Settlement: a settle-up between two users in one currency
//
// # Lifecycle
//
// Expenses and splits are never physically deleted. Deleting or settling an
// expense flips a flag on the expense and all of its splits, so historical
// balances can always be recomputed. Editing an expense replaces its
// participants, contributors and splits as a whole.
//
// Monetary values use decimal.Decimal and are stored as exact decimal text.
package models
