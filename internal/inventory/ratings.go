package inventory

import (
	"context"
	"errors"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null/v8"
)

const defaultTopRatedLimit = 10

// RatingRequest is one user's want/need score for an item. When
// PricePointCategoryID is nil the bucket is derived from the item's resell
// value.
type RatingRequest struct {
	WantRating           *int   `json:"want_rating"`
	NeedRating           *int   `json:"need_rating"`
	PricePointCategoryID *int64 `json:"price_point_category_id"`
}

func (r *RatingRequest) validate() error {
	return domain.FromValidation(validation.ValidateStruct(r,
		validation.Field(&r.WantRating, validation.NotNil, validation.Min(domain.MinRating), validation.Max(domain.MaxRating)),
		validation.Field(&r.NeedRating, validation.NotNil, validation.Min(domain.MinRating), validation.Max(domain.MaxRating)),
		validation.Field(&r.PricePointCategoryID, validation.Min(int64(1))),
	))
}

// RateItem creates or replaces userID's rating of itemID.
func (s *Service) RateItem(ctx context.Context, itemID, userID int64, req RatingRequest) (*domain.Rating, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, domain.NotFound("item", itemID)
		}
		return nil, err
	}

	pricePoint := null.Int64FromPtr(req.PricePointCategoryID)
	if !pricePoint.Valid {
		points, err := s.store.ListPricePoints(ctx)
		if err != nil {
			return nil, err
		}
		if p, ok := PricePointFor(points, item.ResellValue); ok {
			pricePoint = null.Int64From(p.ID)
		}
	}

	rating, err := s.store.UpsertRating(ctx, &domain.Rating{
		ItemID:               itemID,
		UserID:               userID,
		WantRating:           *req.WantRating,
		NeedRating:           *req.NeedRating,
		PricePointCategoryID: pricePoint,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidReference) {
			return nil, domain.Validation("price_point_category_id", "unknown price point")
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"item_id": itemID, "user_id": userID, "want": rating.WantRating, "need": rating.NeedRating}).Debug("item rated")
	return rating, nil
}

// ListItemRatings returns every rating of itemID, newest first.
func (s *Service) ListItemRatings(ctx context.Context, itemID int64) ([]domain.RatingView, error) {
	return s.store.ListRatingsForItem(ctx, itemID)
}

// ListUserRatings returns every rating userID has given.
func (s *Service) ListUserRatings(ctx context.Context, userID int64) ([]domain.RatingView, error) {
	return s.store.ListRatingsByUser(ctx, userID)
}

// DeleteRating removes userID's rating of itemID.
func (s *Service) DeleteRating(ctx context.Context, itemID, userID int64) error {
	if err := s.store.DeleteRating(ctx, itemID, userID); err != nil {
		if errors.Is(err, store.ErrRatingNotFound) {
			return domain.NotFound("rating", itemID)
		}
		return err
	}
	return nil
}

// ListPricePoints returns the price buckets, cheapest first.
func (s *Service) ListPricePoints(ctx context.Context) ([]domain.PricePoint, error) {
	return s.store.ListPricePoints(ctx)
}

// TopRated returns the best-rated items of one price bucket. A limit outside
// 1..100 falls back to 10.
func (s *Service) TopRated(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultTopRatedLimit
	}
	return s.store.TopRatedItems(ctx, pricePointID, limit)
}

// PricePointFor returns the bucket whose [min, max) range holds price. A
// bucket without max is open-ended.
func PricePointFor(points []domain.PricePoint, price float64) (domain.PricePoint, bool) {
	for _, p := range points {
		if price < p.MinPrice {
			continue
		}
		if !p.MaxPrice.Valid || price < p.MaxPrice.Float64 {
			return p, true
		}
	}
	return domain.PricePoint{}, false
}
