// Package market runs the listing lifecycle and the purchase of listings.
package market

import (
	"context"
	"errors"
	"fmt"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/volatiletech/null/v8"
)

// Store is the persistence the coordinator needs.
type Store interface {
	store.TxManager
	GetItemByID(ctx context.Context, id int64) (*domain.Item, error)
	store.ListingStorer
	store.TransactionStorer
}

// CreateListingRequest offers ItemID for sale at Price.
type CreateListingRequest struct {
	ItemID      int64   `json:"item_id"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
}

// UpdateListingRequest changes any subset of price, description and status.
type UpdateListingRequest struct {
	Price       *float64              `json:"price"`
	Description *string               `json:"description"`
	Status      *domain.ListingStatus `json:"status"`
}

// Coordinator owns every write to listings and the purchase transaction.
type Coordinator struct {
	store        Store
	log          *logrus.Entry
	newReference func() string
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(s Store, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		store: s,
		log:   logger.WithField("component", "market"),
		newReference: func() string {
			return ulid.MustNew(ulid.Now(), ulid.DefaultEntropy()).String()
		},
	}
}

// CreateListing puts one of the seller's items on the marketplace.
func (c *Coordinator) CreateListing(ctx context.Context, sellerID int64, req CreateListingRequest) (*domain.Listing, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.ItemID, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Price, validation.Min(0.0)),
	)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	item, err := c.store.GetItemByID(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, domain.NotFound("item", req.ItemID)
		}
		return nil, err
	}
	// Someone else's item is reported the same way as a missing one.
	if item.UserID != sellerID {
		return nil, domain.NotFound("item", req.ItemID)
	}

	if _, err := c.store.FindActiveListingByItem(ctx, item.ID); err == nil {
		return nil, domain.Conflict("item", item.ID, "item %d already has an active listing", item.ID)
	} else if !errors.Is(err, store.ErrListingNotFound) {
		return nil, err
	}

	listing, err := c.store.CreateListing(ctx, &domain.Listing{
		ItemID:      item.ID,
		SellerID:    sellerID,
		Price:       req.Price,
		Status:      domain.ListingActive,
		Description: null.StringFromPtr(req.Description),
	})
	if err != nil {
		if errors.Is(err, store.ErrListingActiveExists) {
			return nil, domain.Conflict("item", item.ID, "item %d already has an active listing", item.ID)
		}
		return nil, err
	}

	c.log.WithFields(logrus.Fields{"listing_id": listing.ID, "item_id": item.ID, "price": listing.Price}).Info("listing created")
	return listing, nil
}

// UpdateListing edits an active listing. The only status a seller may set is
// withdrawn; sold is reached through Purchase alone.
func (c *Coordinator) UpdateListing(ctx context.Context, listingID, sellerID int64, req UpdateListingRequest) (*domain.Listing, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, domain.Validation("price", "must be no less than 0")
	}
	if req.Status != nil {
		switch {
		case !req.Status.Valid():
			return nil, domain.Validation("status", fmt.Sprintf("unknown status %q", *req.Status))
		case *req.Status == domain.ListingSold:
			return nil, domain.Validation("status", "a listing becomes sold only through a purchase")
		}
	}

	listing, err := c.store.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, c.mapListingError(err, listingID)
	}
	if listing.SellerID != sellerID {
		return nil, &domain.AuthorizationError{Resource: "listing", ID: listingID}
	}
	if listing.Status.Terminal() {
		return nil, domain.Conflict("listing", listingID, "listing %d is %s and can no longer change", listingID, listing.Status)
	}

	next := *listing
	if req.Price != nil {
		next.Price = *req.Price
	}
	if req.Description != nil {
		next.Description = null.StringFrom(*req.Description)
	}
	if req.Status != nil && *req.Status != listing.Status {
		if !domain.CanTransition(listing.Status, *req.Status) {
			return nil, domain.Conflict("listing", listingID, "cannot move listing from %s to %s", listing.Status, *req.Status)
		}
		next.Status = *req.Status
	}

	updated, err := c.store.UpdateActiveListing(ctx, &next)
	if err != nil {
		return nil, c.mapListingError(err, listingID)
	}
	c.log.WithFields(logrus.Fields{"listing_id": listingID, "status": updated.Status}).Info("listing updated")
	return updated, nil
}

// DeleteListing removes an active listing. Sold listings are part of the
// purchase history and stay.
func (c *Coordinator) DeleteListing(ctx context.Context, listingID, sellerID int64) error {
	listing, err := c.store.GetListingByID(ctx, listingID)
	if err != nil {
		return c.mapListingError(err, listingID)
	}
	if listing.SellerID != sellerID {
		return &domain.AuthorizationError{Resource: "listing", ID: listingID}
	}
	if listing.Status != domain.ListingActive {
		return domain.Conflict("listing", listingID, "listing %d is %s and cannot be deleted", listingID, listing.Status)
	}
	if err := c.store.DeleteActiveListing(ctx, listingID, sellerID); err != nil {
		return c.mapListingError(err, listingID)
	}
	c.log.WithField("listing_id", listingID).Info("listing deleted")
	return nil
}

// Purchase sells an active listing to buyerID. Claiming the listing, writing
// the transaction record and moving the item to the buyer commit together or
// not at all. Of several concurrent buyers exactly one succeeds; the others
// get a ConflictError. The record is built from the claimed row, so it holds
// the price the listing had when it was sold.
func (c *Coordinator) Purchase(ctx context.Context, listingID, buyerID int64) (*domain.Transaction, error) {
	target, err := c.store.GetPurchaseTarget(ctx, listingID)
	if err != nil {
		return nil, c.mapListingError(err, listingID)
	}
	switch target.Status {
	case domain.ListingWithdrawn:
		return nil, domain.NotFound("listing", listingID)
	case domain.ListingSold:
		return nil, domain.Conflict("listing", listingID, "listing %d has already been sold", listingID)
	}
	if buyerID == target.OwnerID || buyerID == target.SellerID {
		return nil, domain.Validation("buyer_id", "cannot purchase your own item")
	}

	var txn *domain.Transaction
	err = c.store.ExecTx(ctx, func(ctx context.Context) error {
		claimed, err := c.store.MarkListingSold(ctx, listingID)
		if err != nil {
			return c.mapListingError(err, listingID)
		}
		// TransferItem below only moves the item away from claimed.SellerID,
		// so this also rules out a buyer who owns the item.
		if buyerID == claimed.SellerID {
			return domain.Validation("buyer_id", "cannot purchase your own item")
		}
		created, err := c.store.CreateTransaction(ctx, &domain.Transaction{
			Reference: c.newReference(),
			ListingID: listingID,
			BuyerID:   buyerID,
			SellerID:  claimed.SellerID,
			ItemID:    claimed.ItemID,
			Price:     claimed.Price,
			Status:    domain.TransactionCompleted,
		})
		if err != nil {
			return c.mapListingError(err, listingID)
		}
		if err := c.store.TransferItem(ctx, claimed.ItemID, claimed.SellerID, buyerID); err != nil {
			if errors.Is(err, store.ErrOwnershipChanged) {
				return domain.Conflict("item", claimed.ItemID, "item %d is no longer owned by the seller", claimed.ItemID)
			}
			return err
		}
		txn = created
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"listing_id": listingID, "buyer_id": buyerID}).Warn("purchase failed")
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"listing_id": listingID,
		"buyer_id":   buyerID,
		"seller_id":  txn.SellerID,
		"price":      txn.Price,
		"reference":  txn.Reference,
	}).Info("purchase completed")
	return txn, nil
}

// GetListing returns one listing with its display fields.
func (c *Coordinator) GetListing(ctx context.Context, listingID int64) (*domain.ListingView, error) {
	view, err := c.store.GetListingView(ctx, listingID)
	if err != nil {
		return nil, c.mapListingError(err, listingID)
	}
	return view, nil
}

// ListActive returns every active listing, newest first.
func (c *Coordinator) ListActive(ctx context.Context) ([]domain.ListingView, error) {
	return c.store.ListActiveListings(ctx)
}

// ListTransactions returns the purchases userID took part in, either side.
func (c *Coordinator) ListTransactions(ctx context.Context, userID int64) ([]domain.TransactionView, error) {
	return c.store.ListTransactionsForUser(ctx, userID)
}

// GetTransaction returns one of userID's transactions.
func (c *Coordinator) GetTransaction(ctx context.Context, id, userID int64) (*domain.TransactionView, error) {
	txn, err := c.store.GetTransactionForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			return nil, domain.NotFound("transaction", id)
		}
		return nil, err
	}
	return txn, nil
}

func (c *Coordinator) mapListingError(err error, listingID int64) error {
	switch {
	case errors.Is(err, store.ErrListingNotFound):
		return domain.NotFound("listing", listingID)
	case errors.Is(err, store.ErrListingNotActive):
		return domain.Conflict("listing", listingID, "listing %d is no longer active", listingID)
	case errors.Is(err, store.ErrReferenced):
		return domain.Conflict("listing", listingID, "listing %d is referenced by a transaction", listingID)
	}
	return err
}
