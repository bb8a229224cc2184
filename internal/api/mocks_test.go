package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/catalog"
	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/importer"
	"inventory-marketplace/internal/inventory"
	"inventory-marketplace/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// Bearer tokens understood by stubAuth.
const (
	userToken  = "user-token"
	adminToken = "admin-token"
	userID     = int64(7)
	adminID    = int64(1)
)

// stubAuth accepts two fixed tokens.
type stubAuth struct {
	mock.Mock
}

func (s *stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error) {
	args := s.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error) {
	args := s.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *stubAuth) Me(ctx context.Context, id int64) (*domain.User, error) {
	args := s.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (s *stubAuth) Authenticate(token string) (domain.Principal, error) {
	switch token {
	case userToken:
		return domain.Principal{UserID: userID}, nil
	case adminToken:
		return domain.Principal{UserID: adminID, IsAdmin: true}, nil
	}
	return domain.Principal{}, &domain.UnauthenticatedError{Message: "invalid token"}
}

// MockCategoryService is a mock implementation of CategoryService.
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) Create(ctx context.Context, req catalog.CreateCategoryRequest) (*domain.CategoryNode, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryNode), args.Error(1)
}

func (m *MockCategoryService) Get(ctx context.Context, id int64) (*domain.CategoryNode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryNode), args.Error(1)
}

func (m *MockCategoryService) Subtree(ctx context.Context, id int64) ([]domain.CategoryNode, error) {
	args := m.Called(ctx, id)
	var nodes []domain.CategoryNode
	if v := args.Get(0); v != nil {
		nodes = v.([]domain.CategoryNode)
	}
	return nodes, args.Error(1)
}

func (m *MockCategoryService) List(ctx context.Context) ([]domain.CategoryNode, error) {
	args := m.Called(ctx)
	var nodes []domain.CategoryNode
	if v := args.Get(0); v != nil {
		nodes = v.([]domain.CategoryNode)
	}
	return nodes, args.Error(1)
}

func (m *MockCategoryService) Update(ctx context.Context, id int64, req catalog.UpdateCategoryRequest) (*domain.CategoryNode, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryNode), args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockMarketService is a mock implementation of MarketService.
type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) CreateListing(ctx context.Context, sellerID int64, req market.CreateListingRequest) (*domain.Listing, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockMarketService) UpdateListing(ctx context.Context, listingID, sellerID int64, req market.UpdateListingRequest) (*domain.Listing, error) {
	args := m.Called(ctx, listingID, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockMarketService) DeleteListing(ctx context.Context, listingID, sellerID int64) error {
	return m.Called(ctx, listingID, sellerID).Error(0)
}

func (m *MockMarketService) Purchase(ctx context.Context, listingID, buyerID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockMarketService) GetListing(ctx context.Context, listingID int64) (*domain.ListingView, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingView), args.Error(1)
}

func (m *MockMarketService) ListActive(ctx context.Context) ([]domain.ListingView, error) {
	args := m.Called(ctx)
	var out []domain.ListingView
	if v := args.Get(0); v != nil {
		out = v.([]domain.ListingView)
	}
	return out, args.Error(1)
}

func (m *MockMarketService) ListTransactions(ctx context.Context, id int64) ([]domain.TransactionView, error) {
	args := m.Called(ctx, id)
	var out []domain.TransactionView
	if v := args.Get(0); v != nil {
		out = v.([]domain.TransactionView)
	}
	return out, args.Error(1)
}

func (m *MockMarketService) GetTransaction(ctx context.Context, id, uid int64) (*domain.TransactionView, error) {
	args := m.Called(ctx, id, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionView), args.Error(1)
}

// MockInventoryService is a mock implementation of InventoryService.
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CreateItem(ctx context.Context, uid int64, req inventory.ItemRequest) (*domain.Item, error) {
	args := m.Called(ctx, uid, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockInventoryService) GetItem(ctx context.Context, id, uid int64) (*domain.Item, error) {
	args := m.Called(ctx, id, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context, uid int64, req inventory.ListItemsRequest) ([]domain.ItemView, error) {
	args := m.Called(ctx, uid, req)
	var out []domain.ItemView
	if v := args.Get(0); v != nil {
		out = v.([]domain.ItemView)
	}
	return out, args.Error(1)
}

func (m *MockInventoryService) UpdateItem(ctx context.Context, id, uid int64, req inventory.ItemRequest) (*domain.Item, error) {
	args := m.Called(ctx, id, uid, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *MockInventoryService) DeleteItem(ctx context.Context, id, uid int64) error {
	return m.Called(ctx, id, uid).Error(0)
}

func (m *MockInventoryService) RateItem(ctx context.Context, itemID, uid int64, req inventory.RatingRequest) (*domain.Rating, error) {
	args := m.Called(ctx, itemID, uid, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rating), args.Error(1)
}

func (m *MockInventoryService) ListItemRatings(ctx context.Context, itemID int64) ([]domain.RatingView, error) {
	args := m.Called(ctx, itemID)
	var out []domain.RatingView
	if v := args.Get(0); v != nil {
		out = v.([]domain.RatingView)
	}
	return out, args.Error(1)
}

func (m *MockInventoryService) ListUserRatings(ctx context.Context, uid int64) ([]domain.RatingView, error) {
	args := m.Called(ctx, uid)
	var out []domain.RatingView
	if v := args.Get(0); v != nil {
		out = v.([]domain.RatingView)
	}
	return out, args.Error(1)
}

func (m *MockInventoryService) DeleteRating(ctx context.Context, itemID, uid int64) error {
	return m.Called(ctx, itemID, uid).Error(0)
}

func (m *MockInventoryService) ListPricePoints(ctx context.Context) ([]domain.PricePoint, error) {
	args := m.Called(ctx)
	var out []domain.PricePoint
	if v := args.Get(0); v != nil {
		out = v.([]domain.PricePoint)
	}
	return out, args.Error(1)
}

func (m *MockInventoryService) TopRated(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error) {
	args := m.Called(ctx, pricePointID, limit)
	var out []domain.TopRatedItem
	if v := args.Get(0); v != nil {
		out = v.([]domain.TopRatedItem)
	}
	return out, args.Error(1)
}

func (m *MockInventoryService) Stats(ctx context.Context, uid int64) (*domain.DashboardStats, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardStats), args.Error(1)
}

// MockImporter is a mock implementation of ItemImporter.
type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Import(ctx context.Context, uid int64, r io.Reader) (*importer.Result, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, uid, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.Result), args.Error(1)
}

type testServices struct {
	auth       *stubAuth
	categories *MockCategoryService
	inventory  *MockInventoryService
	market     *MockMarketService
	importer   *MockImporter
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T) (*httptest.Server, *testServices) {
	t.Helper()
	mocks := &testServices{
		auth:       new(stubAuth),
		categories: new(MockCategoryService),
		inventory:  new(MockInventoryService),
		market:     new(MockMarketService),
		importer:   new(MockImporter),
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHTTPHandler(Services{
		Auth:       mocks.auth,
		Categories: mocks.categories,
		Inventory:  mocks.inventory,
		Market:     mocks.market,
		Importer:   mocks.importer,
	}, logger, 1<<20)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, mocks
}

func PtrTo[T any](v T) *T {
	return &v
}

// doRequest sends body (marshalled by the caller) with the given bearer token.
func doRequest(t *testing.T, method, url, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}
