package domain

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// ListingStatus is the lifecycle state of a marketplace listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingWithdrawn ListingStatus = "withdrawn"
)

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingSold, ListingWithdrawn:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s ListingStatus) Terminal() bool {
	return s == ListingSold || s == ListingWithdrawn
}

// CanTransition reports whether from -> to is an edge of the listing state
// machine. Staying in the same state is not a transition.
func CanTransition(from, to ListingStatus) bool {
	return from == ListingActive && (to == ListingSold || to == ListingWithdrawn)
}

// Listing offers an item for sale. At most one active listing exists per item.
type Listing struct {
	ID          int64         `json:"id" db:"id"`
	ItemID      int64         `json:"item_id" db:"item_id"`
	SellerID    int64         `json:"seller_id" db:"seller_id"`
	Price       float64       `json:"price" db:"price"`
	Status      ListingStatus `json:"status" db:"status"`
	Description null.String   `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ListingView is a listing joined with the item, category and seller names
// shown on the marketplace page.
type ListingView struct {
	Listing
	ItemName        string      `json:"item_name" db:"item_name"`
	ItemDescription null.String `json:"item_description" db:"item_description"`
	ImageURL        null.String `json:"image_url" db:"image_url"`
	Condition       null.String `json:"condition" db:"condition"`
	CategoryName    null.String `json:"category_name" db:"category_name"`
	SellerName      string      `json:"seller_name" db:"seller_name"`
}

// PurchaseTarget is what Purchase needs to know about a listing before it
// commits: the listing row plus the item's current owner.
type PurchaseTarget struct {
	Listing
	OwnerID int64 `db:"owner_id"`
}
