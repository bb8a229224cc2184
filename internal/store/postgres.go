package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound    = errors.New("store: category not found")
	ErrCategoryNameExists  = errors.New("store: category name already exists under this parent")
	ErrItemNotFound        = errors.New("store: item not found")
	ErrListingNotFound     = errors.New("store: listing not found")
	ErrListingActiveExists = errors.New("store: item already has an active listing")
	ErrListingNotActive    = errors.New("store: listing is no longer active")
	ErrOwnershipChanged    = errors.New("store: item owner changed concurrently")
	ErrTransactionNotFound = errors.New("store: transaction not found")
	ErrRatingNotFound      = errors.New("store: rating not found")
	ErrUserNotFound        = errors.New("store: user not found")
	ErrUserExists          = errors.New("store: username or email already registered")
	ErrReferenced          = errors.New("store: row is still referenced")
	ErrInvalidReference    = errors.New("store: referenced row does not exist")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// PostgresStore implements every *Storer interface plus TxManager on top of a
// single sqlx handle.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the pool when there is none.
func (s *PostgresStore) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// ExecTx runs fn inside a database transaction. Every store call made with the
// context passed to fn joins that transaction. A nested ExecTx joins the outer
// transaction instead of opening a new one. The transaction is rolled back if
// fn returns an error or panics.
func (s *PostgresStore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: failed to start a transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logrus.WithError(rbErr).Error("store: failed to rollback tx")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit tx: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	logrus.Info("Closing database connection pool...")
	if err := s.db.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close database connection pool")
		return err
	}
	logrus.Info("Database connection pool closed successfully.")
	return nil
}

// pqCode returns the SQLSTATE of a PostgreSQL error, if err is one.
func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

// rowsAffected returns notFound when res touched no row.
func rowsAffected(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
