package domain

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// TransactionCompleted is the only status a transaction is ever created with.
const TransactionCompleted = "completed"

// Transaction is the immutable audit record of a purchase. Price is captured
// from the listing at purchase time.
type Transaction struct {
	ID        int64     `json:"id" db:"id"`
	Reference string    `json:"reference" db:"reference"`
	ListingID int64     `json:"listing_id" db:"listing_id"`
	BuyerID   int64     `json:"buyer_id" db:"buyer_id"`
	SellerID  int64     `json:"seller_id" db:"seller_id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Price     float64   `json:"price" db:"price"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransactionView adds the display names shown in a user's history.
type TransactionView struct {
	Transaction
	ItemName     string      `json:"item_name" db:"item_name"`
	CategoryName null.String `json:"category_name" db:"category_name"`
	BuyerName    string      `json:"buyer_name" db:"buyer_name"`
	SellerName   string      `json:"seller_name" db:"seller_name"`
}
