package api

import (
	"net/http"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/market"
)

// --- Marketplace Handlers ---

type ListingCreateInput struct {
	ItemID      int64   `json:"item_id" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description *string `json:"description" validate:"omitempty"`
}

// ListingUpdateInput changes any subset of a listing. Sellers may only set the
// status to withdrawn; the service enforces that.
type ListingUpdateInput struct {
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active sold withdrawn"`
}

type PurchaseInput struct {
	ListingID int64 `json:"listing_id" validate:"required,gt=0"`
}

func (h *HTTPHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.svc.Market.ListActive(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if listings == nil {
		listings = []domain.ListingView{}
	}
	respondWithJSON(w, http.StatusOK, listings)
}

func (h *HTTPHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r, "listingId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	listing, err := h.svc.Market.GetListing(r.Context(), listingID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *HTTPHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var input ListingCreateInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	listing, err := h.svc.Market.CreateListing(r.Context(), principal(r).UserID, market.CreateListingRequest{
		ItemID:      input.ItemID,
		Price:       input.Price,
		Description: input.Description,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, listing)
}

func (h *HTTPHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r, "listingId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var input ListingUpdateInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	req := market.UpdateListingRequest{Price: input.Price, Description: input.Description}
	if input.Status != nil {
		status := domain.ListingStatus(*input.Status)
		req.Status = &status
	}
	listing, err := h.svc.Market.UpdateListing(r.Context(), listingID, principal(r).UserID, req)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, listing)
}

func (h *HTTPHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r, "listingId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if err := h.svc.Market.DeleteListing(r.Context(), listingID, principal(r).UserID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// PurchaseListing buys the listing named in the path.
func (h *HTTPHandler) PurchaseListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := idParam(r, "listingId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.purchase(w, r, listingID)
}

// --- Transaction Handlers ---

// CreateTransaction buys the listing named in the body.
func (h *HTTPHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var input PurchaseInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.purchase(w, r, input.ListingID)
}

func (h *HTTPHandler) purchase(w http.ResponseWriter, r *http.Request, listingID int64) {
	txn, err := h.svc.Market.Purchase(r.Context(), listingID, principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, txn)
}

func (h *HTTPHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.svc.Market.ListTransactions(r.Context(), principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if txns == nil {
		txns = []domain.TransactionView{}
	}
	respondWithJSON(w, http.StatusOK, txns)
}

func (h *HTTPHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, err := idParam(r, "transactionId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	txn, err := h.svc.Market.GetTransaction(r.Context(), txnID, principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, txn)
}
