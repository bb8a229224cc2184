package api

import (
	"net/http"
	"strconv"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/inventory"
)

// --- Item Handlers ---

// ItemInput is the body of item create and update requests.
type ItemInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Description   *string `json:"description" validate:"omitempty"`
	CategoryID    *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Quantity      *int    `json:"quantity" validate:"omitempty,gte=0"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	NewValue      float64 `json:"new_value" validate:"gte=0"`
	ResellValue   float64 `json:"resell_value" validate:"gte=0"`
	Condition     *string `json:"condition" validate:"omitempty,max=50"`
	Location      *string `json:"location" validate:"omitempty,max=255"`
	ImageURL      *string `json:"image_url" validate:"omitempty,max=2048"`
}

func (in ItemInput) request() inventory.ItemRequest {
	return inventory.ItemRequest{
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		Quantity:      in.Quantity,
		PurchasePrice: in.PurchasePrice,
		NewValue:      in.NewValue,
		ResellValue:   in.ResellValue,
		Condition:     in.Condition,
		Location:      in.Location,
		ImageURL:      in.ImageURL,
	}
}

// ItemListQuery holds the query string of GET /items.
type ItemListQuery struct {
	CategoryID *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Search     *string `json:"search" validate:"omitempty,max=255"`
	SortBy     string  `json:"sort_by" validate:"omitempty,oneof=created_at name new_value resell_value avg_want_rating avg_need_rating"`
	SortOrder  string  `json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var input ItemInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	item, err := h.svc.Inventory.CreateItem(r.Context(), principal(r).UserID, input.request())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ItemListQuery{SortBy: q.Get("sort_by"), SortOrder: q.Get("sort_order")}
	if idStr := q.Get("category_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			h.respondWithError(w, r, errInvalidQuery("category_id"))
			return
		}
		query.CategoryID = &id
	}
	if s := q.Get("search"); s != "" {
		query.Search = &s
	}
	if err := h.check(query); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	items, err := h.svc.Inventory.ListItems(r.Context(), principal(r).UserID, inventory.ListItemsRequest{
		CategoryID: query.CategoryID,
		Search:     query.Search,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.ItemView{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	item, err := h.svc.Inventory.GetItem(r.Context(), itemID, principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var input ItemInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	item, err := h.svc.Inventory.UpdateItem(r.Context(), itemID, principal(r).UserID, input.request())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if err := h.svc.Inventory.DeleteItem(r.Context(), itemID, principal(r).UserID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Rating Handlers ---

// RatingInput is the body of a rating upsert.
type RatingInput struct {
	WantRating           *int   `json:"want_rating" validate:"required,gte=0,lte=10"`
	NeedRating           *int   `json:"need_rating" validate:"required,gte=0,lte=10"`
	PricePointCategoryID *int64 `json:"price_point_category_id" validate:"omitempty,gt=0"`
}

func (h *HTTPHandler) RateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	var input RatingInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	rating, err := h.svc.Inventory.RateItem(r.Context(), itemID, principal(r).UserID, inventory.RatingRequest{
		WantRating:           input.WantRating,
		NeedRating:           input.NeedRating,
		PricePointCategoryID: input.PricePointCategoryID,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rating)
}

func (h *HTTPHandler) ListItemRatings(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	ratings, err := h.svc.Inventory.ListItemRatings(r.Context(), itemID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []domain.RatingView{}
	}
	respondWithJSON(w, http.StatusOK, ratings)
}

func (h *HTTPHandler) ListUserRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.svc.Inventory.ListUserRatings(r.Context(), principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []domain.RatingView{}
	}
	respondWithJSON(w, http.StatusOK, ratings)
}

func (h *HTTPHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "itemId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if err := h.svc.Inventory.DeleteRating(r.Context(), itemID, principal(r).UserID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) ListPricePoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.svc.Inventory.ListPricePoints(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, points)
}

func (h *HTTPHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	pricePointID, err := idParam(r, "pricePointId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	// Out-of-range limits fall back to the service default.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.svc.Inventory.TopRated(r.Context(), pricePointID, limit)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.TopRatedItem{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// --- Dashboard ---

func (h *HTTPHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Inventory.Stats(r.Context(), principal(r).UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
