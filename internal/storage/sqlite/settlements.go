package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/expensebook/internal/models"
	"github.com/mmynk/expensebook/internal/storage"
)

const betweenPair = `is_deleted = 0 AND is_settled = 0 AND currency = ?
	AND ((ower_id = ? AND payer_id = ?) OR (ower_id = ? AND payer_id = ?))`

// SettleBetween settles every active split between settlement.FromUserID and
// settlement.ToUserID in settlement.Currency. The net amount is computed from
// the splits being settled; if the "to" user turns out to be the debtor the
// two users are swapped so FromUserID always names who paid. Expenses whose
// splits are now all settled are flagged settled too.
func (s *SQLiteStore) SettleBetween(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	from, to := settlement.FromUserID, settlement.ToUserID
	pairArgs := []any{settlement.Currency, from, to, to, from}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		net, count, err := netBetween(ctx, tx, from, pairArgs)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("no active %s splits between users %d and %d: %w",
				settlement.Currency, from, to, storage.ErrNotFound)
		}

		if net.IsNegative() {
			settlement.FromUserID, settlement.ToUserID = to, from
			net = net.Neg()
		}
		settlement.Amount = net
		settlement.SplitCount = count

		_, err = tx.ExecContext(ctx,
			"UPDATE expense_splits SET is_settled = 1 WHERE "+betweenPair,
			pairArgs...,
		)
		if err != nil {
			return fmt.Errorf("failed to settle splits: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE expenses SET is_settled = 1, updated_at = ?
			 WHERE is_deleted = 0 AND is_settled = 0
			   AND EXISTS (SELECT 1 FROM expense_splits s WHERE s.expense_id = expenses.id AND s.is_deleted = 0)
			   AND NOT EXISTS (SELECT 1 FROM expense_splits s
			                   WHERE s.expense_id = expenses.id AND s.is_deleted = 0 AND s.is_settled = 0)`,
			settlement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to settle expenses: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlements (id, from_user_id, to_user_id, currency, amount, split_count, created_at, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, settlement.FromUserID, settlement.ToUserID, settlement.Currency,
			settlement.Amount, settlement.SplitCount, settlement.CreatedAt, settlement.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
		return nil
	})
}

// netBetween returns what from owes the other user (negative when the other
// user owes from) and the number of splits involved.
func netBetween(ctx context.Context, tx *sql.Tx, from int64, pairArgs []any) (decimal.Decimal, int64, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT ower_id, amount FROM expense_splits WHERE "+betweenPair,
		pairArgs...,
	)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to read splits: %w", err)
	}
	defer rows.Close()

	net := decimal.Zero
	var count int64
	for rows.Next() {
		var owerID int64
		var amount decimal.Decimal
		if err := rows.Scan(&owerID, &amount); err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to scan split: %w", err)
		}
		if owerID == from {
			net = net.Add(amount)
		} else {
			net = net.Sub(amount)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return net, count, nil
}

// ListSettlements retrieves all settlements involving userID, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, userID int64) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_user_id, to_user_id, currency, amount, split_count, created_at, created_by
		 FROM settlements WHERE from_user_id = ? OR to_user_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		if err := rows.Scan(&settlement.ID, &settlement.FromUserID, &settlement.ToUserID,
			&settlement.Currency, &settlement.Amount, &settlement.SplitCount,
			&settlement.CreatedAt, &settlement.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}
