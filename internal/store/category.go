package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, description, parent_id, level, path, created_at, updated_at`

// --- CategoryStorer Implementation ---

// CreateCategory inserts the row with an empty path; the caller sets the path
// with SetCategoryPath once the id is known, inside the same transaction.
func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (name, description, parent_id, level, path)
		VALUES ($1, $2, $3, $4, '')
		RETURNING ` + categoryColumns + `;
	`
	var created domain.Category
	err := sqlx.GetContext(ctx, s.conn(ctx), &created, query,
		category.Name, category.Description, category.ParentID, category.Level)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCategoryNameExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) SetCategoryPath(ctx context.Context, id int64, path string) error {
	query := `UPDATE categories SET path = $1 WHERE id = $2;`
	res, err := s.conn(ctx).ExecContext(ctx, query, path, id)
	if err != nil {
		return fmt.Errorf("store: SetCategoryPath failed to execute update: %w", err)
	}
	return rowsAffected(res, ErrCategoryNotFound)
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	var category domain.Category
	if err := sqlx.GetContext(ctx, s.conn(ctx), &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return &category, nil
}

// ListCategories returns the whole flat table. Ordering for display is done
// by the in-process tree walk, not here.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id ASC;`
	categories := make([]domain.Category, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &categories, query); err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) FindSiblingByName(ctx context.Context, parentID *int64, name string) (*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE parent_id IS NOT DISTINCT FROM $1 AND name = $2
		LIMIT 1;
	`
	var category domain.Category
	if err := sqlx.GetContext(ctx, s.conn(ctx), &category, query, parentID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: FindSiblingByName failed to scan row: %w", err)
	}
	return &category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET name = $1, description = $2, parent_id = $3, level = $4, path = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING ` + categoryColumns + `;
	`
	var updated domain.Category
	err := sqlx.GetContext(ctx, s.conn(ctx), &updated, query,
		category.Name, category.Description, category.ParentID, category.Level, category.Path, category.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrCategoryNameExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return &updated, nil
}

// UpdateCategoryPaths rewrites path and level for each row. It is meant to run
// inside ExecTx together with the UpdateCategory that caused the move.
func (s *PostgresStore) UpdateCategoryPaths(ctx context.Context, updates []PathUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	query := `UPDATE categories SET level = $1, path = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3;`
	conn := s.conn(ctx)
	for _, u := range updates {
		res, err := conn.ExecContext(ctx, query, u.Level, u.Path, u.ID)
		if err != nil {
			return fmt.Errorf("store: UpdateCategoryPaths failed for category %d: %w", u.ID, err)
		}
		if err := rowsAffected(res, ErrCategoryNotFound); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) LockCategories(ctx context.Context) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); !ok {
		return errors.New("store: LockCategories called outside a transaction")
	}
	if _, err := s.conn(ctx).ExecContext(ctx, `LOCK TABLE categories IN SHARE ROW EXCLUSIVE MODE;`); err != nil {
		return fmt.Errorf("store: LockCategories failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountChildCategories(ctx context.Context, id int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM categories WHERE parent_id = $1;`
	if err := sqlx.GetContext(ctx, s.conn(ctx), &n, query, id); err != nil {
		return 0, fmt.Errorf("store: CountChildCategories failed: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountItemsInCategory(ctx context.Context, id int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM items WHERE category_id = $1;`
	if err := sqlx.GetContext(ctx, s.conn(ctx), &n, query, id); err != nil {
		return 0, fmt.Errorf("store: CountItemsInCategory failed: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	query := `DELETE FROM categories WHERE id = $1;`
	res, err := s.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("store: DeleteCategory failed to execute delete: %w", err)
	}
	return rowsAffected(res, ErrCategoryNotFound)
}
