package domain

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Rating bounds, inclusive.
const (
	MinRating = 0
	MaxRating = 10
)

// Rating is one user's want/need score for an item. There is at most one per
// (item, user) pair; writes replace the previous scores.
type Rating struct {
	ID                   int64      `json:"id" db:"id"`
	ItemID               int64      `json:"item_id" db:"item_id"`
	UserID               int64      `json:"user_id" db:"user_id"`
	WantRating           int        `json:"want_rating" db:"want_rating"`
	NeedRating           int        `json:"need_rating" db:"need_rating"`
	PricePointCategoryID null.Int64 `json:"price_point_category_id" db:"price_point_category_id"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// RatingView adds the rater's username and the rated item's name.
type RatingView struct {
	Rating
	Username   string      `json:"username" db:"username"`
	ItemName   string      `json:"item_name" db:"item_name"`
	PricePoint null.String `json:"price_point_category" db:"price_point_category"`
}

// PricePoint buckets items by price for the top-rated view.
type PricePoint struct {
	ID       int64        `json:"id" db:"id"`
	Name     string       `json:"name" db:"name"`
	MinPrice float64      `json:"min_price" db:"min_price"`
	MaxPrice null.Float64 `json:"max_price" db:"max_price"`
}

// TopRatedItem is one row of the per-price-point leaderboard.
type TopRatedItem struct {
	ItemID        int64   `json:"item_id" db:"item_id"`
	ItemName      string  `json:"item_name" db:"item_name"`
	PricePointID  int64   `json:"price_point_category_id" db:"price_point_category_id"`
	AvgWantRating float64 `json:"avg_want_rating" db:"avg_want_rating"`
	AvgNeedRating float64 `json:"avg_need_rating" db:"avg_need_rating"`
	TotalRatings  int     `json:"total_ratings" db:"total_ratings"`
}
