package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/internal/storage"
)

const expenseColumns = `id, description, amount, currency, method, group_id,
	created_by, created_at, updated_at, is_deleted, is_settled`

// CreateExpense persists a new expense with its participants, contributors
// and splits. Nothing is written if any insert fails.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, description, amount, currency, method, group_id,
				created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.Description, expense.Amount, expense.Currency, expense.Method,
			nullString(expense.GroupID), expense.CreatedBy, expense.CreatedAt, expense.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return insertExpenseDetails(ctx, tx, expense)
	})
}

// GetExpense retrieves an active expense by ID with all of its details.
// Splits flagged as deleted by an earlier edit are not returned.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND is_deleted = 0",
		expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := loadExpenseDetails(ctx, s.db, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ReplaceExpense overwrites the description, participants and contributors
// of an active, unsettled expense. It returns storage.ErrSettled once the
// expense has been settled. Previous splits are flagged deleted and the new
// splits are inserted in the same transaction.
func (s *SQLiteStore) ReplaceExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE expenses SET description = ?, updated_at = ? WHERE id = ? AND is_deleted = 0 AND is_settled = 0",
			expense.Description, expense.UpdatedAt, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			var settled bool
			err := tx.QueryRowContext(ctx,
				"SELECT is_settled FROM expenses WHERE id = ? AND is_deleted = 0", expense.ID,
			).Scan(&settled)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
			case err != nil:
				return fmt.Errorf("failed to check expense: %w", err)
			case settled:
				return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrSettled)
			}
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		for _, stmt := range []string{
			"DELETE FROM expense_participants WHERE expense_id = ?",
			"DELETE FROM expense_contributors WHERE expense_id = ?",
			"UPDATE expense_splits SET is_deleted = 1 WHERE expense_id = ? AND is_deleted = 0",
		} {
			if _, err := tx.ExecContext(ctx, stmt, expense.ID); err != nil {
				return fmt.Errorf("failed to clear expense details: %w", err)
			}
		}

		return insertExpenseDetails(ctx, tx, expense)
	})
}

// DeleteExpense flags an expense and all of its splits as deleted.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	return s.flagExpense(ctx, expenseID, "is_deleted")
}

// SettleExpense flags an expense and all of its splits as settled.
func (s *SQLiteStore) SettleExpense(ctx context.Context, expenseID string) error {
	return s.flagExpense(ctx, expenseID, "is_settled")
}

// flagExpense sets column on the expense and its splits. column is one of
// the fixed flag names above, never user input.
func (s *SQLiteStore) flagExpense(ctx context.Context, expenseID, column string) error {
	now := time.Now().Unix()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE expenses SET "+column+" = 1, updated_at = ? WHERE id = ? AND is_deleted = 0",
			now, expenseID,
		)
		if err != nil {
			return fmt.Errorf("failed to flag expense: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE expense_splits SET "+column+" = 1 WHERE expense_id = ? AND is_deleted = 0",
			expenseID,
		)
		if err != nil {
			return fmt.Errorf("failed to flag splits: %w", err)
		}
		return nil
	})
}

// ListExpensesByGroup retrieves all active expenses of a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id FROM expenses
		 WHERE group_id = ? AND is_deleted = 0
		 ORDER BY created_at DESC, id`,
		groupID,
	)
}

// ListExpensesBetweenUsers retrieves active expenses with a split between
// the two users, newest first. Settled expenses are included.
func (s *SQLiteStore) ListExpensesBetweenUsers(ctx context.Context, userA, userB int64) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT e.id FROM expenses e
		 WHERE e.is_deleted = 0 AND EXISTS (
			SELECT 1 FROM expense_splits s
			WHERE s.expense_id = e.id AND s.is_deleted = 0
			  AND ((s.ower_id = ? AND s.payer_id = ?) OR (s.ower_id = ? AND s.payer_id = ?))
		 )
		 ORDER BY e.created_at DESC, e.id`,
		userA, userB, userB, userA,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, idQuery string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, idQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

// ListActiveSplits retrieves splits that are neither deleted nor settled.
func (s *SQLiteStore) ListActiveSplits(ctx context.Context, filter storage.SplitFilter) ([]models.Split, error) {
	conds := []string{"is_deleted = 0", "is_settled = 0"}
	var args []any
	if filter.UserID != 0 {
		conds = append(conds, "(ower_id = ? OR payer_id = ?)")
		args = append(args, filter.UserID, filter.UserID)
	}
	switch {
	case filter.Direct:
		conds = append(conds, "group_id IS NULL")
	case filter.GroupID != "":
		conds = append(conds, "group_id = ?")
		args = append(args, filter.GroupID)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE "+strings.Join(conds, " AND ")+" ORDER BY rowid",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	return scanSplits(rows)
}

func insertExpenseDetails(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, p := range expense.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, position, user_id, value, share) VALUES (?, ?, ?, ?, ?)",
			expense.ID, i, p.UserID, p.Value, p.Share,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i, c := range expense.Contributors {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_contributors (expense_id, position, user_id, paid) VALUES (?, ?, ?, ?)",
			expense.ID, i, c.UserID, c.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert contributor: %w", err)
		}
	}

	for i := range expense.Splits {
		split := &expense.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = expense.ID
		split.GroupID = expense.GroupID
		split.Currency = expense.Currency

		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_splits (id, expense_id, ower_id, payer_id, amount, currency, group_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			split.ID, split.ExpenseID, split.OwerID, split.PayerID, split.Amount,
			split.Currency, nullString(split.GroupID),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func loadExpenseDetails(ctx context.Context, db execer, expense *models.Expense) error {
	rows, err := db.QueryContext(ctx,
		"SELECT user_id, value, share FROM expense_participants WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for rows.Next() {
		var p models.ExpenseParticipant
		if err := rows.Scan(&p.UserID, &p.Value, &p.Share); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		expense.Participants = append(expense.Participants, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	rows, err = db.QueryContext(ctx,
		"SELECT user_id, paid FROM expense_contributors WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get contributors: %w", err)
	}
	for rows.Next() {
		var c models.ExpenseContributor
		if err := rows.Scan(&c.UserID, &c.Paid); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan contributor: %w", err)
		}
		expense.Contributors = append(expense.Contributors, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributors: %w", err)
	}

	rows, err = db.QueryContext(ctx,
		"SELECT "+splitColumns+" FROM expense_splits WHERE expense_id = ? AND is_deleted = 0 ORDER BY rowid",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	expense.Splits, err = scanSplits(rows)
	return err
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var groupID sql.NullString
	err := row.Scan(
		&expense.ID,
		&expense.Description,
		&expense.Amount,
		&expense.Currency,
		&expense.Method,
		&groupID,
		&expense.CreatedBy,
		&expense.CreatedAt,
		&expense.UpdatedAt,
		&expense.Deleted,
		&expense.Settled,
	)
	if err != nil {
		return nil, err
	}
	expense.GroupID = groupID.String
	return expense, nil
}

const splitColumns = "id, expense_id, ower_id, payer_id, amount, currency, group_id, is_settled, is_deleted"

func scanSplits(rows *sql.Rows) ([]models.Split, error) {
	var splits []models.Split
	for rows.Next() {
		var split models.Split
		var groupID sql.NullString
		if err := rows.Scan(
			&split.ID,
			&split.ExpenseID,
			&split.OwerID,
			&split.PayerID,
			&split.Amount,
			&split.Currency,
			&groupID,
			&split.Settled,
			&split.Deleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		split.GroupID = groupID.String
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}
