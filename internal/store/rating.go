package store

import (
	"context"
	"fmt"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

const ratingColumns = `id, item_id, user_id, want_rating, need_rating, price_point_category_id, created_at, updated_at`

// --- RatingStorer Implementation ---

// UpsertRating writes the (item, user) rating in a single statement so two
// concurrent writers never produce a duplicate row.
func (s *PostgresStore) UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	query := `
		INSERT INTO item_ratings (item_id, user_id, want_rating, need_rating, price_point_category_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, user_id) DO UPDATE
		SET want_rating = EXCLUDED.want_rating,
			need_rating = EXCLUDED.need_rating,
			price_point_category_id = EXCLUDED.price_point_category_id,
			updated_at = CURRENT_TIMESTAMP
		RETURNING ` + ratingColumns + `;
	`
	var saved domain.Rating
	err := sqlx.GetContext(ctx, s.conn(ctx), &saved, query,
		rating.ItemID, rating.UserID, rating.WantRating, rating.NeedRating, rating.PricePointCategoryID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("store: UpsertRating failed to scan row: %w", err)
	}
	return &saved, nil
}

func (s *PostgresStore) ListRatingsForItem(ctx context.Context, itemID int64) ([]domain.RatingView, error) {
	query := `
		SELECT r.id, r.item_id, r.user_id, r.want_rating, r.need_rating, r.price_point_category_id,
			r.created_at, r.updated_at, u.username, i.name AS item_name, p.name AS price_point_category
		FROM item_ratings r
		JOIN users u ON r.user_id = u.id
		JOIN items i ON r.item_id = i.id
		LEFT JOIN price_point_categories p ON r.price_point_category_id = p.id
		WHERE r.item_id = $1
		ORDER BY r.created_at DESC, r.id DESC;
	`
	ratings := make([]domain.RatingView, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &ratings, query, itemID); err != nil {
		return nil, fmt.Errorf("store: ListRatingsForItem failed to query ratings: %w", err)
	}
	return ratings, nil
}

func (s *PostgresStore) ListRatingsByUser(ctx context.Context, userID int64) ([]domain.RatingView, error) {
	query := `
		SELECT r.id, r.item_id, r.user_id, r.want_rating, r.need_rating, r.price_point_category_id,
			r.created_at, r.updated_at, u.username, i.name AS item_name, p.name AS price_point_category
		FROM item_ratings r
		JOIN users u ON r.user_id = u.id
		JOIN items i ON r.item_id = i.id
		LEFT JOIN price_point_categories p ON r.price_point_category_id = p.id
		WHERE r.user_id = $1
		ORDER BY r.updated_at DESC, r.id DESC;
	`
	ratings := make([]domain.RatingView, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &ratings, query, userID); err != nil {
		return nil, fmt.Errorf("store: ListRatingsByUser failed to query ratings: %w", err)
	}
	return ratings, nil
}

func (s *PostgresStore) DeleteRating(ctx context.Context, itemID, userID int64) error {
	query := `DELETE FROM item_ratings WHERE item_id = $1 AND user_id = $2;`
	res, err := s.conn(ctx).ExecContext(ctx, query, itemID, userID)
	if err != nil {
		return fmt.Errorf("store: DeleteRating failed to execute delete: %w", err)
	}
	return rowsAffected(res, ErrRatingNotFound)
}

func (s *PostgresStore) ListPricePoints(ctx context.Context) ([]domain.PricePoint, error) {
	query := `SELECT id, name, min_price, max_price FROM price_point_categories ORDER BY min_price ASC;`
	points := make([]domain.PricePoint, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &points, query); err != nil {
		return nil, fmt.Errorf("store: ListPricePoints failed to query price points: %w", err)
	}
	return points, nil
}

func (s *PostgresStore) TopRatedItems(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error) {
	query := `
		SELECT r.item_id, i.name AS item_name, r.price_point_category_id,
			AVG(r.want_rating) AS avg_want_rating,
			AVG(r.need_rating) AS avg_need_rating,
			COUNT(*) AS total_ratings
		FROM item_ratings r
		JOIN items i ON r.item_id = i.id
		WHERE r.price_point_category_id = $1
		GROUP BY r.item_id, i.name, r.price_point_category_id
		ORDER BY avg_want_rating DESC, avg_need_rating DESC, r.item_id ASC
		LIMIT $2;
	`
	top := make([]domain.TopRatedItem, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &top, query, pricePointID, limit); err != nil {
		return nil, fmt.Errorf("store: TopRatedItems failed to query ratings: %w", err)
	}
	return top, nil
}
