package store

import (
	"context"

	"inventory-marketplace/internal/domain"
)

// TxManager groups store calls into one database transaction.
type TxManager interface {
	ExecTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PathUpdate rewrites the stored path and level of one category.
type PathUpdate struct {
	ID    int64
	Level int
	Path  string
}

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	SetCategoryPath(ctx context.Context, id int64, path string) error
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// FindSiblingByName looks a name up among the children of parentID, or
	// among the roots when parentID is nil.
	FindSiblingByName(ctx context.Context, parentID *int64, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	UpdateCategoryPaths(ctx context.Context, updates []PathUpdate) error
	// LockCategories blocks other tree writers until the surrounding
	// transaction ends. Readers are not blocked.
	LockCategories(ctx context.Context) error
	CountChildCategories(ctx context.Context, id int64) (int, error)
	CountItemsInCategory(ctx context.Context, id int64) (int, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ListItemsParams filters and sorts an owner's items.
type ListItemsParams struct {
	UserID     int64
	CategoryID *int64
	Search     *string
	SortBy     string // created_at, name, new_value, resell_value, avg_want_rating, avg_need_rating
	SortOrder  string // asc or desc
}

// ItemStorer defines the database operations for items.
type ItemStorer interface {
	CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetItemByID(ctx context.Context, id int64) (*domain.Item, error)
	ListItems(ctx context.Context, params ListItemsParams) ([]domain.ItemView, error)
	UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id, userID int64) error
}

// ListingStorer defines the database operations for marketplace listings.
type ListingStorer interface {
	CreateListing(ctx context.Context, listing *domain.Listing) (*domain.Listing, error)
	GetListingByID(ctx context.Context, id int64) (*domain.Listing, error)
	GetListingView(ctx context.Context, id int64) (*domain.ListingView, error)
	ListActiveListings(ctx context.Context) ([]domain.ListingView, error)
	FindActiveListingByItem(ctx context.Context, itemID int64) (*domain.Listing, error)
	// UpdateActiveListing writes price, description and status only while the
	// stored status is still active; otherwise ErrListingNotActive.
	UpdateActiveListing(ctx context.Context, listing *domain.Listing) (*domain.Listing, error)
	DeleteActiveListing(ctx context.Context, id, sellerID int64) error
	GetPurchaseTarget(ctx context.Context, listingID int64) (*domain.PurchaseTarget, error)
	// MarkListingSold flips active -> sold and returns the row as claimed, or
	// fails with ErrListingNotActive.
	MarkListingSold(ctx context.Context, id int64) (*domain.Listing, error)
	// TransferItem moves ownership from -> to, or fails with ErrOwnershipChanged.
	TransferItem(ctx context.Context, itemID, fromUserID, toUserID int64) error
}

// TransactionStorer defines the database operations for purchase records.
type TransactionStorer interface {
	CreateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error)
	ListTransactionsForUser(ctx context.Context, userID int64) ([]domain.TransactionView, error)
	GetTransactionForUser(ctx context.Context, id, userID int64) (*domain.TransactionView, error)
}

// RatingStorer defines the database operations for item ratings.
type RatingStorer interface {
	UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error)
	ListRatingsForItem(ctx context.Context, itemID int64) ([]domain.RatingView, error)
	ListRatingsByUser(ctx context.Context, userID int64) ([]domain.RatingView, error)
	DeleteRating(ctx context.Context, itemID, userID int64) error
	ListPricePoints(ctx context.Context) ([]domain.PricePoint, error)
	TopRatedItems(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error)
}

// UserStorer defines the database operations for accounts.
type UserStorer interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// StatsStorer defines the read-only dashboard queries.
type StatsStorer interface {
	CountItems(ctx context.Context, userID int64) (total, listed int, err error)
	InventoryValue(ctx context.Context, userID int64) (float64, error)
	CountActiveListings(ctx context.Context, userID int64) (int, error)
	RatingSummary(ctx context.Context, userID int64) (count int, avgWant, avgNeed float64, err error)
	RecentActivity(ctx context.Context, userID int64, limit int) ([]domain.Activity, error)
}
