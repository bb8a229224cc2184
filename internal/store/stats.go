package store

import (
	"context"
	"fmt"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

// --- StatsStorer Implementation ---

func (s *PostgresStore) CountItems(ctx context.Context, userID int64) (total, listed int, err error) {
	query := `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE EXISTS (
				SELECT 1 FROM marketplace_listings l WHERE l.item_id = i.id AND l.status = 'active'
			)) AS listed
		FROM items i
		WHERE i.user_id = $1;
	`
	var row struct {
		Total  int `db:"total"`
		Listed int `db:"listed"`
	}
	if err := sqlx.GetContext(ctx, s.conn(ctx), &row, query, userID); err != nil {
		return 0, 0, fmt.Errorf("store: CountItems failed: %w", err)
	}
	return row.Total, row.Listed, nil
}

func (s *PostgresStore) InventoryValue(ctx context.Context, userID int64) (float64, error) {
	var v float64
	query := `SELECT COALESCE(SUM(purchase_price * quantity), 0) FROM items WHERE user_id = $1;`
	if err := sqlx.GetContext(ctx, s.conn(ctx), &v, query, userID); err != nil {
		return 0, fmt.Errorf("store: InventoryValue failed: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) CountActiveListings(ctx context.Context, userID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM marketplace_listings WHERE seller_id = $1 AND status = 'active';`
	if err := sqlx.GetContext(ctx, s.conn(ctx), &n, query, userID); err != nil {
		return 0, fmt.Errorf("store: CountActiveListings failed: %w", err)
	}
	return n, nil
}

// RatingSummary aggregates the ratings given to the user's own items.
func (s *PostgresStore) RatingSummary(ctx context.Context, userID int64) (count int, avgWant, avgNeed float64, err error) {
	query := `
		SELECT COUNT(r.id) AS total,
			COALESCE(AVG(r.want_rating), 0) AS avg_want,
			COALESCE(AVG(r.need_rating), 0) AS avg_need
		FROM item_ratings r
		JOIN items i ON r.item_id = i.id
		WHERE i.user_id = $1;
	`
	var row struct {
		Total   int     `db:"total"`
		AvgWant float64 `db:"avg_want"`
		AvgNeed float64 `db:"avg_need"`
	}
	if err := sqlx.GetContext(ctx, s.conn(ctx), &row, query, userID); err != nil {
		return 0, 0, 0, fmt.Errorf("store: RatingSummary failed: %w", err)
	}
	return row.Total, row.AvgWant, row.AvgNeed, nil
}

// RecentActivity merges the newest items, listings and purchases of a user.
func (s *PostgresStore) RecentActivity(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	query := `
		SELECT type, description, timestamp, id FROM (
			SELECT 'item_added' AS type, 'Added ' || name AS description, created_at AS timestamp, id
			FROM items WHERE user_id = $1
			UNION ALL
			SELECT 'item_listed', 'Listed ' || i.name, l.created_at, l.id
			FROM marketplace_listings l JOIN items i ON l.item_id = i.id
			WHERE l.seller_id = $1
			UNION ALL
			SELECT CASE WHEN t.buyer_id = $1 THEN 'item_bought' ELSE 'item_sold' END,
				CASE WHEN t.buyer_id = $1 THEN 'Bought ' ELSE 'Sold ' END || i.name,
				t.created_at, t.id
			FROM transactions t JOIN items i ON t.item_id = i.id
			WHERE t.buyer_id = $1 OR t.seller_id = $1
		) activity
		ORDER BY timestamp DESC, id DESC
		LIMIT $2;
	`
	activity := make([]domain.Activity, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &activity, query, userID, limit); err != nil {
		return nil, fmt.Errorf("store: RecentActivity failed: %w", err)
	}
	return activity, nil
}
