package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/yuchenlin/studyhub-server/internal/ledger"
	"github.com/yuchenlin/studyhub-server/internal/models"
)

// Ledger repository methods. Every balance mutation runs as one SQL
// transaction that pairs the balance update with exactly one appended
// transaction record, so no reader can ever observe one without the
// other. Postgres row locks on users(id) serialize operations on the
// same account while leaving other accounts untouched.

// CreditPoints atomically increments the user's balance and appends an
// EARN record. Returns the new balance and the created record.
func (r *PostgresRepository) CreditPoints(
	ctx context.Context,
	userID int64,
	amount int,
	reason string,
) (int, *models.PointTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	balance, record, err := creditTx(ctx, tx, userID, amount, reason)
	if err != nil {
		return 0, nil, err
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, err
	}

	return balance, record, nil
}

// DebitPoints atomically checks sufficiency, decrements the balance and
// appends a SPEND record. The check and the decrement are a single
// conditional UPDATE, so two concurrent spends against a balance only
// sufficient for one resolve to exactly one success.
func (r *PostgresRepository) DebitPoints(
	ctx context.Context,
	userID int64,
	amount int,
	reason string,
) (int, *models.PointTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()

	var balance int
	err = tx.QueryRowContext(ctx,
		`UPDATE users
		SET points = points - $1, updated_at = $2
		WHERE id = $3 AND points >= $1
		RETURNING points`,
		amount, now, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing account from an insufficient balance.
		var exists bool
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, nil, err
		}
		if !exists {
			err = ledger.ErrAccountNotFound
		} else {
			err = ledger.ErrInsufficientFunds
		}
		return 0, nil, err
	}
	if err != nil {
		return 0, nil, err
	}

	record, err := appendRecordTx(ctx, tx, userID, ledger.KindSpend, amount, reason, now)
	if err != nil {
		return 0, nil, err
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, err
	}

	return balance, record, nil
}

// RewardMessage flips the message's rewarded flag and credits the reply
// author in one transaction. The conditional flag update is the
// exactly-once guard: of any number of concurrent attempts, only one
// sees rewarded_by_author = FALSE, so at most one credit is ever
// issued; the losers get ErrAlreadyRewarded and no state change.
func (r *PostgresRepository) RewardMessage(
	ctx context.Context,
	messageID int64,
	recipientID int64,
	amount int,
	reason string,
) (int, *models.PointTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE chat_messages
		SET rewarded_by_author = TRUE
		WHERE id = $1 AND rewarded_by_author = FALSE`,
		messageID)
	if err != nil {
		return 0, nil, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		err = ledger.ErrAlreadyRewarded
		return 0, nil, err
	}

	balance, record, err := creditTx(ctx, tx, recipientID, amount, reason)
	if err != nil {
		return 0, nil, err
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, err
	}

	return balance, record, nil
}

func (r *PostgresRepository) GetBalance(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := r.db.GetContext(ctx, &balance, `SELECT points FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledger.ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// TransactionHistory returns the user's transaction records, most
// recent first. An empty kind returns both kinds; limit 0 means no
// limit.
func (r *PostgresRepository) TransactionHistory(
	ctx context.Context,
	userID int64,
	kind ledger.Kind,
	limit uint64,
) ([]models.PointTransaction, error) {
	builder := sq.Select("*").
		From("point_transactions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("id DESC").
		PlaceholderFormat(sq.Dollar)

	if kind != "" {
		builder = builder.Where(sq.Eq{"kind": string(kind)})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	records := []models.PointTransaction{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}

	return records, nil
}

// creditTx performs the balance increment plus EARN append inside an
// existing transaction. Shared by CreditPoints and RewardMessage.
func creditTx(
	ctx context.Context,
	tx *sql.Tx,
	userID int64,
	amount int,
	reason string,
) (int, *models.PointTransaction, error) {
	now := time.Now().UTC()

	var balance int
	err := tx.QueryRowContext(ctx,
		`UPDATE users
		SET points = points + $1, updated_at = $2
		WHERE id = $3
		RETURNING points`,
		amount, now, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return 0, nil, err
	}

	record, err := appendRecordTx(ctx, tx, userID, ledger.KindEarn, amount, reason, now)
	if err != nil {
		return 0, nil, err
	}

	return balance, record, nil
}

// appendRecordTx appends one transaction record and fills in its
// assigned id.
func appendRecordTx(
	ctx context.Context,
	tx *sql.Tx,
	userID int64,
	kind ledger.Kind,
	amount int,
	reason string,
	now time.Time,
) (*models.PointTransaction, error) {
	record := &models.PointTransaction{
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
	}

	err := tx.QueryRowContext(ctx,
		`INSERT INTO point_transactions (user_id, kind, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		userID, string(kind), amount, reason, now).Scan(&record.ID)
	if err != nil {
		return nil, err
	}

	return record, nil
}
