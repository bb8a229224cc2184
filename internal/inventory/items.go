package inventory

import (
	"context"
	"errors"
	"strings"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null/v8"
)

// ItemRequest carries every editable field of an item. Updates replace all of
// them.
type ItemRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	CategoryID    *int64  `json:"category_id"`
	Quantity      *int    `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	NewValue      float64 `json:"new_value"`
	ResellValue   float64 `json:"resell_value"`
	Condition     *string `json:"condition"`
	Location      *string `json:"location"`
	ImageURL      *string `json:"image_url"`
}

// ListItemsRequest filters an owner's item list.
type ListItemsRequest struct {
	CategoryID *int64
	Search     *string
	SortBy     string
	SortOrder  string
}

func (r *ItemRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return domain.FromValidation(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.CategoryID, validation.Min(int64(1))),
		validation.Field(&r.Quantity, validation.Min(0)),
		validation.Field(&r.PurchasePrice, validation.Min(0.0)),
		validation.Field(&r.NewValue, validation.Min(0.0)),
		validation.Field(&r.ResellValue, validation.Min(0.0)),
		validation.Field(&r.Condition, validation.Length(0, 50)),
		validation.Field(&r.Location, validation.Length(0, 255)),
	))
}

func (r *ItemRequest) apply(item *domain.Item) {
	item.Name = r.Name
	item.Description = null.StringFromPtr(r.Description)
	item.CategoryID = null.Int64FromPtr(r.CategoryID)
	item.Quantity = 1
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	item.PurchasePrice = r.PurchasePrice
	item.NewValue = r.NewValue
	item.ResellValue = r.ResellValue
	item.Condition = null.StringFromPtr(r.Condition)
	item.Location = null.StringFromPtr(r.Location)
	item.ImageURL = null.StringFromPtr(r.ImageURL)
}

func (s *Service) checkCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetCategoryByID(ctx, *id); err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return domain.NotFound("category", *id)
		}
		return err
	}
	return nil
}

// CreateItem adds an item owned by userID.
func (s *Service) CreateItem(ctx context.Context, userID int64, req ItemRequest) (*domain.Item, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	item := &domain.Item{UserID: userID}
	req.apply(item)

	created, err := s.store.CreateItem(ctx, item)
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return nil, domain.Validation("category_id", "category does not exist")
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": created.ID, "user_id": userID}).Info("item created")
	return created, nil
}

// GetItem returns an item owned by userID. Other users' items are not found.
func (s *Service) GetItem(ctx context.Context, id, userID int64) (*domain.Item, error) {
	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, domain.NotFound("item", id)
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.NotFound("item", id)
	}
	return item, nil
}

// ListItems returns userID's items with category and rating aggregates.
func (s *Service) ListItems(ctx context.Context, userID int64, req ListItemsRequest) ([]domain.ItemView, error) {
	return s.store.ListItems(ctx, store.ListItemsParams{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Search:     req.Search,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	})
}

// UpdateItem replaces the editable fields of one of userID's items.
func (s *Service) UpdateItem(ctx context.Context, id, userID int64, req ItemRequest) (*domain.Item, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item, err := s.GetItem(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	req.apply(item)

	updated, err := s.store.UpdateItem(ctx, item)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			return nil, domain.NotFound("item", id)
		case errors.Is(err, store.ErrInvalidReference):
			return nil, domain.Validation("category_id", "category does not exist")
		}
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes one of userID's items. Items on sale, or with a sale in
// their history, cannot be removed.
func (s *Service) DeleteItem(ctx context.Context, id, userID int64) error {
	if _, err := s.GetItem(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.store.FindActiveListingByItem(ctx, id); err == nil {
		return domain.Conflict("item", id, "item %d has an active listing; withdraw it first", id)
	} else if !errors.Is(err, store.ErrListingNotFound) {
		return err
	}
	if err := s.store.DeleteItem(ctx, id, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			return domain.NotFound("item", id)
		case errors.Is(err, store.ErrReferenced):
			return domain.Conflict("item", id, "item %d is referenced by marketplace history", id)
		}
		return err
	}
	s.log.WithFields(logrus.Fields{"item_id": id, "user_id": userID}).Info("item deleted")
	return nil
}
