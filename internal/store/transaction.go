package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

const transactionViewSelect = `
	SELECT t.id, t.reference, t.listing_id, t.buyer_id, t.seller_id, t.item_id, t.price, t.status, t.created_at,
		i.name AS item_name, c.name AS category_name,
		b.username AS buyer_name, s.username AS seller_name
	FROM transactions t
	JOIN items i ON t.item_id = i.id
	LEFT JOIN categories c ON i.category_id = c.id
	JOIN users b ON t.buyer_id = b.id
	JOIN users s ON t.seller_id = s.id
`

// --- TransactionStorer Implementation ---

func (s *PostgresStore) CreateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (reference, listing_id, buyer_id, seller_id, item_id, price, status)
		VALUES (:reference, :listing_id, :buyer_id, :seller_id, :item_id, :price, :status)
		RETURNING id, reference, listing_id, buyer_id, seller_id, item_id, price, status, created_at;
	`
	bound, args, err := sqlx.BindNamed(sqlx.DOLLAR, query, txn)
	if err != nil {
		return nil, fmt.Errorf("store: CreateTransaction failed to bind query: %w", err)
	}
	var created domain.Transaction
	if err := sqlx.GetContext(ctx, s.conn(ctx), &created, bound, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrListingNotActive
		}
		return nil, fmt.Errorf("store: CreateTransaction failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) ListTransactionsForUser(ctx context.Context, userID int64) ([]domain.TransactionView, error) {
	query := transactionViewSelect + `
		WHERE t.buyer_id = $1 OR t.seller_id = $1
		ORDER BY t.created_at DESC, t.id DESC;
	`
	txns := make([]domain.TransactionView, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &txns, query, userID); err != nil {
		return nil, fmt.Errorf("store: ListTransactionsForUser failed to query transactions: %w", err)
	}
	return txns, nil
}

// GetTransactionForUser returns ErrTransactionNotFound both when the row is
// absent and when userID took no part in it.
func (s *PostgresStore) GetTransactionForUser(ctx context.Context, id, userID int64) (*domain.TransactionView, error) {
	query := transactionViewSelect + ` WHERE t.id = $1 AND (t.buyer_id = $2 OR t.seller_id = $2);`
	var txn domain.TransactionView
	if err := sqlx.GetContext(ctx, s.conn(ctx), &txn, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("store: GetTransactionForUser failed to scan row: %w", err)
	}
	return &txn, nil
}
