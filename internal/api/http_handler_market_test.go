package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/importer"
	"inventory-marketplace/internal/inventory"
	"inventory-marketplace/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Purchase(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	txn := &domain.Transaction{
		ID: 1, Reference: "01J0000000000000000000000A", ListingID: 10,
		BuyerID: userID, SellerID: 2, ItemID: 3, Price: 500, Status: domain.TransactionCompleted,
	}
	mocks.market.On("Purchase", mock.Anything, int64(10), userID).Return(txn, nil).Twice()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace/10/purchase", userToken, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var got domain.Transaction
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, 500.0, got.Price)
	assert.Equal(t, userID, got.BuyerID)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/transactions", userToken, jsonBody(t, PurchaseInput{ListingID: 10}))
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	mocks.market.AssertExpectations(t)
}

func TestHTTPHandler_Purchase_Errors(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.market.On("Purchase", mock.Anything, int64(10), userID).
		Return(nil, domain.Conflict("listing", 10, "listing 10 has already been sold")).Once()
	mocks.market.On("Purchase", mock.Anything, int64(11), userID).
		Return(nil, domain.Validation("buyer_id", "cannot purchase your own item")).Once()
	mocks.market.On("Purchase", mock.Anything, int64(12), userID).
		Return(nil, domain.NotFound("listing", 12)).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace/10/purchase", userToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace/11/purchase", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace/12/purchase", userToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/transactions", userToken, jsonBody(t, map[string]int{}))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, decodeError(t, res).Error, "listing_id")

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace/10/purchase", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	mocks.market.AssertExpectations(t)
}

func TestHTTPHandler_CreateListing(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.market.On("CreateListing", mock.Anything, userID, market.CreateListingRequest{ItemID: 3, Price: 25}).
		Return(&domain.Listing{ID: 9, ItemID: 3, SellerID: userID, Price: 25, Status: domain.ListingActive}, nil).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace", userToken, jsonBody(t, ListingCreateInput{ItemID: 3, Price: 25}))
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/marketplace", userToken, jsonBody(t, ListingCreateInput{ItemID: 3, Price: -1}))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mocks.market.AssertExpectations(t)
}

func TestHTTPHandler_UpdateListing_Status(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	withdrawn := domain.ListingWithdrawn
	mocks.market.On("UpdateListing", mock.Anything, int64(9), userID, market.UpdateListingRequest{Status: &withdrawn}).
		Return(&domain.Listing{ID: 9, Status: domain.ListingWithdrawn}, nil).Once()

	res := doRequest(t, http.MethodPut, server.URL+"/api/v1/marketplace/9", userToken,
		bytes.NewBufferString(`{"status":"withdrawn"}`))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = doRequest(t, http.MethodPut, server.URL+"/api/v1/marketplace/9", userToken,
		bytes.NewBufferString(`{"status":"given-away"}`))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mocks.market.AssertExpectations(t)
}

func TestHTTPHandler_Listings_ReadEndpoints(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.market.On("ListActive", mock.Anything).Return(nil, nil).Once()
	mocks.market.On("GetTransaction", mock.Anything, int64(5), userID).Return(nil, domain.NotFound("transaction", 5)).Once()

	res := doRequest(t, http.MethodGet, server.URL+"/api/v1/marketplace", userToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var listings []domain.ListingView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&listings))
	assert.NotNil(t, listings)
	assert.Empty(t, listings)

	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/transactions/5", userToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	mocks.market.AssertExpectations(t)
}

func TestHTTPHandler_Items(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.inventory.On("CreateItem", mock.Anything, userID, mock.MatchedBy(func(r inventory.ItemRequest) bool {
		return r.Name == "Lamp" && r.ResellValue == 30
	})).Return(&domain.Item{ID: 4, UserID: userID, Name: "Lamp", ResellValue: 30}, nil).Once()
	mocks.inventory.On("ListItems", mock.Anything, userID, inventory.ListItemsRequest{
		CategoryID: PtrTo(int64(2)), SortBy: "name", SortOrder: "asc",
	}).Return([]domain.ItemView{}, nil).Once()
	mocks.inventory.On("DeleteItem", mock.Anything, int64(4), userID).
		Return(domain.Conflict("item", 4, "item 4 has an active listing; withdraw it first")).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/items", userToken, jsonBody(t, ItemInput{Name: "Lamp", ResellValue: 30}))
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/items?category_id=2&sort_by=name&sort_order=asc", userToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/items?sort_by=password_hash", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doRequest(t, http.MethodDelete, server.URL+"/api/v1/items/4", userToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	mocks.inventory.AssertExpectations(t)
}

func TestHTTPHandler_Ratings(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	mocks.inventory.On("RateItem", mock.Anything, int64(4), userID, mock.MatchedBy(func(r inventory.RatingRequest) bool {
		return *r.WantRating == 8 && *r.NeedRating == 2
	})).Return(&domain.Rating{ID: 1, ItemID: 4, WantRating: 8, NeedRating: 2}, nil).Once()
	mocks.inventory.On("TopRated", mock.Anything, int64(2), 0).Return(nil, nil).Once()
	mocks.inventory.On("ListPricePoints", mock.Anything).Return([]domain.PricePoint{{ID: 1, Name: "Under £10"}}, nil).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/items/4/rate", userToken, jsonBody(t, RatingInput{
		WantRating: PtrTo(8), NeedRating: PtrTo(2),
	}))
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/ratings/4", userToken, jsonBody(t, RatingInput{
		WantRating: PtrTo(11), NeedRating: PtrTo(2),
	}))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Public lookups need no token.
	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/ratings/top-rated/2", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/ratings/price-points", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/ratings/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	mocks.inventory.AssertExpectations(t)
}

func TestHTTPHandler_AuthFlow(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	user := &domain.User{ID: userID, Username: "alice", Email: "alice@example.com"}
	mocks.auth.On("Register", mock.Anything, auth.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "s3cret-pass"}).
		Return(&auth.Session{Token: userToken, User: user}, nil).Once()
	mocks.auth.On("Me", mock.Anything, userID).Return(user, nil).Once()

	res := doRequest(t, http.MethodPost, server.URL+"/api/v1/auth/register", "", jsonBody(t, RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "s3cret-pass",
	}))
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var session auth.Session
	require.NoError(t, json.NewDecoder(res.Body).Decode(&session))
	assert.Equal(t, userToken, session.Token)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/auth/register", "", jsonBody(t, RegisterInput{
		Username: "al", Email: "not-an-email", Password: "short",
	}))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doRequest(t, http.MethodGet, server.URL+"/api/v1/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var me domain.User
	require.NoError(t, json.NewDecoder(res.Body).Decode(&me))
	assert.Equal(t, "alice", me.Username)

	mocks.auth.AssertExpectations(t)
}

func TestHTTPHandler_ImportItems(t *testing.T) {
	server, mocks := setupTestChiServer(t)

	csvData := "Item,Resell Value (£)\nLamp,30\n"
	mocks.importer.On("Import", mock.Anything, adminID, csvData).
		Return(&importer.Result{Imported: 1, Errors: []importer.RowError{}}, nil).Once()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "items.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	send := func(token string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/admin/import-items", bytes.NewReader(body.Bytes()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { res.Body.Close() })
		return res
	}

	res := send(userToken)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = send(adminToken)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var result importer.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Failed)

	res = doRequest(t, http.MethodPost, server.URL+"/api/v1/admin/import-items", adminToken, bytes.NewBufferString("{}"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mocks.importer.AssertExpectations(t)
}

func TestHTTPHandler_Healthz(t *testing.T) {
	server, _ := setupTestChiServer(t)
	res := doRequest(t, http.MethodGet, server.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
