// Package inventory manages a user's own items, the want/need ratings users
// give to items, and the per-user dashboard figures.
package inventory

import (
	"context"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	"github.com/sirupsen/logrus"
)

// Store is the persistence the inventory service needs.
type Store interface {
	store.ItemStorer
	store.RatingStorer
	store.StatsStorer
	GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
	FindActiveListingByItem(ctx context.Context, itemID int64) (*domain.Listing, error)
}

// Service implements items, ratings and dashboard statistics.
type Service struct {
	store Store
	log   *logrus.Entry
}

// NewService creates a Service.
func NewService(s Store, logger *logrus.Logger) *Service {
	return &Service{store: s, log: logger.WithField("component", "inventory")}
}
