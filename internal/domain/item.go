package domain

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Item is something a user owns. Ownership is exclusive and only ever moves
// wholesale, when a listing for the item is purchased.
type Item struct {
	ID            int64       `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	CategoryID    null.Int64  `json:"category_id" db:"category_id"`
	Name          string      `json:"name" db:"name"`
	Description   null.String `json:"description" db:"description"`
	Quantity      int         `json:"quantity" db:"quantity"`
	PurchasePrice float64     `json:"purchase_price" db:"purchase_price"`
	NewValue      float64     `json:"new_value" db:"new_value"`
	ResellValue   float64     `json:"resell_value" db:"resell_value"`
	Condition     null.String `json:"condition" db:"condition"`
	Location      null.String `json:"location" db:"location"`
	ImageURL      null.String `json:"image_url" db:"image_url"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// ItemView is an item joined with its category and rating aggregates.
type ItemView struct {
	Item
	CategoryName  null.String `json:"category_name" db:"category_name"`
	CategoryPath  null.String `json:"category_path" db:"category_path"`
	AvgWantRating float64     `json:"avg_want_rating" db:"avg_want_rating"`
	AvgNeedRating float64     `json:"avg_need_rating" db:"avg_need_rating"`
	RatingCount   int         `json:"rating_count" db:"rating_count"`
}
