package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-marketplace/internal/domain"

	"github.com/jmoiron/sqlx"
)

const listingColumns = `id, item_id, seller_id, price, status, description, created_at, updated_at`

const listingViewSelect = `
	SELECT l.id, l.item_id, l.seller_id, l.price, l.status, l.description, l.created_at, l.updated_at,
		i.name AS item_name, i.description AS item_description, i.image_url, i.condition,
		c.name AS category_name, u.username AS seller_name
	FROM marketplace_listings l
	JOIN items i ON l.item_id = i.id
	LEFT JOIN categories c ON i.category_id = c.id
	JOIN users u ON l.seller_id = u.id
`

// --- ListingStorer Implementation ---

func (s *PostgresStore) CreateListing(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	query := `
		INSERT INTO marketplace_listings (item_id, seller_id, price, status, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + listingColumns + `;
	`
	var created domain.Listing
	err := sqlx.GetContext(ctx, s.conn(ctx), &created, query,
		listing.ItemID, listing.SellerID, listing.Price, listing.Status, listing.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrListingActiveExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("store: CreateListing failed to scan row: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) GetListingByID(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM marketplace_listings WHERE id = $1;`
	var listing domain.Listing
	if err := sqlx.GetContext(ctx, s.conn(ctx), &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("store: GetListingByID failed to scan row: %w", err)
	}
	return &listing, nil
}

func (s *PostgresStore) GetListingView(ctx context.Context, id int64) (*domain.ListingView, error) {
	query := listingViewSelect + ` WHERE l.id = $1;`
	var view domain.ListingView
	if err := sqlx.GetContext(ctx, s.conn(ctx), &view, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("store: GetListingView failed to scan row: %w", err)
	}
	return &view, nil
}

func (s *PostgresStore) ListActiveListings(ctx context.Context) ([]domain.ListingView, error) {
	query := listingViewSelect + ` WHERE l.status = 'active' ORDER BY l.created_at DESC, l.id DESC;`
	listings := make([]domain.ListingView, 0)
	if err := sqlx.SelectContext(ctx, s.conn(ctx), &listings, query); err != nil {
		return nil, fmt.Errorf("store: ListActiveListings failed to query listings: %w", err)
	}
	return listings, nil
}

func (s *PostgresStore) FindActiveListingByItem(ctx context.Context, itemID int64) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM marketplace_listings WHERE item_id = $1 AND status = 'active';`
	var listing domain.Listing
	if err := sqlx.GetContext(ctx, s.conn(ctx), &listing, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("store: FindActiveListingByItem failed to scan row: %w", err)
	}
	return &listing, nil
}

func (s *PostgresStore) UpdateActiveListing(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	query := `
		UPDATE marketplace_listings
		SET price = $1, description = $2, status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = 'active'
		RETURNING ` + listingColumns + `;
	`
	var updated domain.Listing
	err := sqlx.GetContext(ctx, s.conn(ctx), &updated, query,
		listing.Price, listing.Description, listing.Status, listing.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotActive
		}
		return nil, fmt.Errorf("store: UpdateActiveListing failed to scan row: %w", err)
	}
	return &updated, nil
}

func (s *PostgresStore) DeleteActiveListing(ctx context.Context, id, sellerID int64) error {
	query := `DELETE FROM marketplace_listings WHERE id = $1 AND seller_id = $2 AND status = 'active';`
	res, err := s.conn(ctx).ExecContext(ctx, query, id, sellerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("store: DeleteActiveListing failed to execute delete: %w", err)
	}
	return rowsAffected(res, ErrListingNotActive)
}

func (s *PostgresStore) GetPurchaseTarget(ctx context.Context, listingID int64) (*domain.PurchaseTarget, error) {
	query := `
		SELECT l.id, l.item_id, l.seller_id, l.price, l.status, l.description, l.created_at, l.updated_at,
			i.user_id AS owner_id
		FROM marketplace_listings l
		JOIN items i ON l.item_id = i.id
		WHERE l.id = $1;
	`
	var target domain.PurchaseTarget
	if err := sqlx.GetContext(ctx, s.conn(ctx), &target, query, listingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("store: GetPurchaseTarget failed to scan row: %w", err)
	}
	return &target, nil
}

// MarkListingSold is the claim step of a purchase. Under READ COMMITTED the
// WHERE clause is re-checked after a concurrent writer commits, so of two
// racing buyers exactly one gets the row back. The returned price and seller
// are the ones the row held when it was locked.
func (s *PostgresStore) MarkListingSold(ctx context.Context, id int64) (*domain.Listing, error) {
	query := `
		UPDATE marketplace_listings
		SET status = 'sold', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = 'active'
		RETURNING ` + listingColumns + `;
	`
	var claimed domain.Listing
	if err := sqlx.GetContext(ctx, s.conn(ctx), &claimed, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotActive
		}
		return nil, fmt.Errorf("store: MarkListingSold failed to scan row: %w", err)
	}
	return &claimed, nil
}

func (s *PostgresStore) TransferItem(ctx context.Context, itemID, fromUserID, toUserID int64) error {
	query := `
		UPDATE items
		SET user_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND user_id = $3;
	`
	res, err := s.conn(ctx).ExecContext(ctx, query, toUserID, itemID, fromUserID)
	if err != nil {
		return fmt.Errorf("store: TransferItem failed to execute update: %w", err)
	}
	return rowsAffected(res, ErrOwnershipChanged)
}
