package inventory

import (
	"context"

	"inventory-marketplace/internal/domain"

	"golang.org/x/sync/errgroup"
)

const recentActivityLimit = 10

// Stats gathers the dashboard figures of userID. The queries are independent
// and run concurrently; the first failure cancels the rest.
func (s *Service) Stats(ctx context.Context, userID int64) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, listed, err := s.store.CountItems(gctx, userID)
		stats.TotalItems, stats.TotalListedItems = total, listed
		return err
	})
	g.Go(func() error {
		v, err := s.store.InventoryValue(gctx, userID)
		stats.TotalValue = v
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountActiveListings(gctx, userID)
		stats.ActiveListings = n
		return err
	})
	g.Go(func() error {
		count, want, need, err := s.store.RatingSummary(gctx, userID)
		stats.TotalRatings, stats.AvgWantRating, stats.AvgNeedRating = count, want, need
		return err
	})
	g.Go(func() error {
		activity, err := s.store.RecentActivity(gctx, userID, recentActivityLimit)
		stats.RecentActivity = activity
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats.RecentActivity == nil {
		stats.RecentActivity = []domain.Activity{}
	}
	return &stats, nil
}
