package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, user_id, category_id, name, description, quantity, purchase_price, new_value,
	resell_value, condition, location, image_url, created_at, updated_at`

// --- ItemStorer Implementation ---

func (s *PostgresStore) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	query := `
		INSERT INTO items
			(user_id, category_id, name, description, quantity, purchase_price, new_value, resell_value, condition, location, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + itemColumns + `;
	`
	var created domain.Item
	err := sqlx.GetContext(ctx, s.conn(ctx), &created, query,
		item.UserID, item.CategoryID, item.Name, item.Description, item.Quantity,
		item.PurchasePrice, item.NewValue, item.ResellValue, item.Condition, item.Location, item.ImageURL,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("store: CreateItem failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1;`
	var item domain.Item
	if err := sqlx.GetContext(ctx, s.conn(ctx), &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("store: GetItemByID failed to scan row: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, params ListItemsParams) ([]domain.ItemView, error) {
	queryArgs := []interface{}{params.UserID}
	whereClauses := []string{"i.user_id = $1"}
	argID := 2

	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("i.category_id = $%d", argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	if params.Search != nil && *params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(i.name ILIKE $%d OR i.description ILIKE $%d)", argID, argID))
		queryArgs = append(queryArgs, "%"+*params.Search+"%")
		argID++
	}

	sortColumn := "i.created_at"
	allowedSortColumns := map[string]string{
		"created_at":      "i.created_at",
		"name":            "i.name",
		"new_value":       "i.new_value",
		"resell_value":    "i.resell_value",
		"avg_want_rating": "avg_want_rating",
		"avg_need_rating": "avg_need_rating",
	}
	if col, ok := allowedSortColumns[strings.ToLower(params.SortBy)]; ok {
		sortColumn = col
	}
	sortOrder := "DESC"
	if strings.ToUpper(params.SortOrder) == "ASC" {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.user_id, i.category_id, i.name, i.description, i.quantity, i.purchase_price,
			i.new_value, i.resell_value, i.condition, i.location, i.image_url, i.created_at, i.updated_at,
			c.name AS category_name, c.path AS category_path,
			COALESCE(AVG(r.want_rating), 0) AS avg_want_rating,
			COALESCE(AVG(r.need_rating), 0) AS avg_need_rating,
			COUNT(DISTINCT r.id) AS rating_count
		FROM items i
		LEFT JOIN categories c ON i.category_id = c.id
		LEFT JOIN item_ratings r ON i.id = r.item_id
		WHERE %s
		GROUP BY i.id, c.name, c.path
		ORDER BY %s %s, i.id ASC;
	`, strings.Join(whereClauses, " AND "), sortColumn, sortOrder)

	items := make([]domain.ItemView, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &items, query, queryArgs...); err != nil {
		return nil, fmt.Errorf("store: ListItems failed to query items: %w", err)
	}
	return items, nil
}

// UpdateItem only touches the row when it still belongs to item.UserID.
func (s *PostgresStore) UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	query := `
		UPDATE items
		SET category_id = $1, name = $2, description = $3, quantity = $4, purchase_price = $5,
			new_value = $6, resell_value = $7, condition = $8, location = $9, image_url = $10,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $11 AND user_id = $12
		RETURNING ` + itemColumns + `;
	`
	var updated domain.Item
	err := sqlx.GetContext(ctx, s.conn(ctx), &updated, query,
		item.CategoryID, item.Name, item.Description, item.Quantity, item.PurchasePrice,
		item.NewValue, item.ResellValue, item.Condition, item.Location, item.ImageURL,
		item.ID, item.UserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("store: UpdateItem failed to scan row: %w", err)
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM items WHERE id = $1 AND user_id = $2;`
	res, err := s.conn(ctx).ExecContext(ctx, query, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("store: DeleteItem failed to execute delete: %w", err)
	}
	return rowsAffected(res, ErrItemNotFound)
}
