package inventory

import (
	"context"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockStore) GetItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockStore) ListItems(ctx context.Context, params store.ListItemsParams) ([]domain.ItemView, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ItemView), args.Error(1)
}

func (m *MockStore) UpdateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockStore) DeleteItem(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockStore) UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	args := m.Called(ctx, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *MockStore) ListRatingsForItem(ctx context.Context, itemID int64) ([]domain.RatingView, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).([]domain.RatingView), args.Error(1)
}

func (m *MockStore) ListRatingsByUser(ctx context.Context, userID int64) ([]domain.RatingView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.RatingView), args.Error(1)
}

func (m *MockStore) DeleteRating(ctx context.Context, itemID, userID int64) error {
	return m.Called(ctx, itemID, userID).Error(0)
}

func (m *MockStore) ListPricePoints(ctx context.Context) ([]domain.PricePoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

func (m *MockStore) TopRatedItems(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error) {
	args := m.Called(ctx, pricePointID, limit)
	return args.Get(0).([]domain.TopRatedItem), args.Error(1)
}

func (m *MockStore) CountItems(ctx context.Context, userID int64) (int, int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockStore) InventoryValue(ctx context.Context, userID int64) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) CountActiveListings(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) RatingSummary(ctx context.Context, userID int64) (int, float64, float64, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Get(1).(float64), args.Get(2).(float64), args.Error(3)
}

func (m *MockStore) RecentActivity(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Activity), args.Error(1)
}

func (m *MockStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockStore) FindActiveListingByItem(ctx context.Context, itemID int64) (*domain.Listing, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
