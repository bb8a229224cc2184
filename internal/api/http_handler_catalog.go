package api

import (
	"net/http"
	"strconv"

	"inventory-marketplace/internal/catalog"
)

// --- Category Handlers ---

// CategoryInput is the body of category create and update requests. On update
// a missing parent_id moves the category to the root.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty"`
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gt=0"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	created, err := h.svc.Categories.Create(r.Context(), catalog.CreateCategoryRequest{
		Name:        input.Name,
		Description: input.Description,
		ParentID:    input.ParentID,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ListCategories returns the forest in pre-order, or the subtree below
// ?root_id when given.
func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if rootStr := r.URL.Query().Get("root_id"); rootStr != "" {
		rootID, err := strconv.ParseInt(rootStr, 10, 64)
		if err != nil || rootID <= 0 {
			h.respondWithError(w, r, errInvalidQuery("root_id"))
			return
		}
		nodes, err := h.svc.Categories.Subtree(r.Context(), rootID)
		if err != nil {
			h.respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nodes)
		return
	}

	nodes, err := h.svc.Categories.List(r.Context())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nodes)
}

func (h *HTTPHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := idParam(r, "categoryId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if subtree, _ := strconv.ParseBool(r.URL.Query().Get("subtree")); subtree {
		nodes, err := h.svc.Categories.Subtree(r.Context(), categoryID)
		if err != nil {
			h.respondWithError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nodes)
		return
	}

	node, err := h.svc.Categories.Get(r.Context(), categoryID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, node)
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := idParam(r, "categoryId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	var input CategoryInput
	if err := h.decode(r, &input); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	updated, err := h.svc.Categories.Update(r.Context(), categoryID, catalog.UpdateCategoryRequest{
		Name:        input.Name,
		Description: input.Description,
		ParentID:    input.ParentID,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := idParam(r, "categoryId")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.svc.Categories.Delete(r.Context(), categoryID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}
