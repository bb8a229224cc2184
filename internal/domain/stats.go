package domain

import "time"

// DashboardStats summarizes one user's inventory and marketplace activity.
type DashboardStats struct {
	TotalItems       int        `json:"totalItems"`
	TotalListedItems int        `json:"totalListedItems"`
	TotalValue       float64    `json:"totalValue"`
	ActiveListings   int        `json:"activeListings"`
	TotalRatings     int        `json:"totalRatings"`
	AvgWantRating    float64    `json:"averageWantRating"`
	AvgNeedRating    float64    `json:"averageNeedRating"`
	RecentActivity   []Activity `json:"recentActivity"`
}

// Activity is an entry in the dashboard's recent activity feed.
type Activity struct {
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	ID          int64     `json:"id" db:"id"`
}
