// Package importer loads a spreadsheet export of items into the catalog,
// the owner's inventory and the marketplace.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/inventory"
	"inventory-marketplace/internal/market"
	"inventory-marketplace/internal/store"

	"github.com/sirupsen/logrus"
)

// Column headers understood by the importer. Purchase price accepts either of
// two spellings.
const (
	colItem          = "Item"
	colDescription   = "Description"
	colCategory      = "Category"
	colPurchased     = "Purchased Price (£)"
	colPurchaseValue = "Purchase Value (£)"
	colNewValue      = "Value (New) (£)"
	colResellValue   = "Resell Value (£)"
	colCondition     = "Condition"
	colLocation      = "Location"
	colImageURL      = "ImageUrl"
	colWant          = "Want scale (0-10)"
	colNeed          = "Need Scale (0-10)"
)

type CategoryResolver interface {
	FindOrCreateRoot(ctx context.Context, name string) (*domain.Category, error)
}

type ItemWriter interface {
	CreateItem(ctx context.Context, userID int64, req inventory.ItemRequest) (*domain.Item, error)
	RateItem(ctx context.Context, itemID, userID int64, req inventory.RatingRequest) (*domain.Rating, error)
}

type ListingWriter interface {
	CreateListing(ctx context.Context, sellerID int64, req market.CreateListingRequest) (*domain.Listing, error)
}

// RowError describes one row that could not be imported. Row is the line
// number in the file, the header being line 1.
type RowError struct {
	Row   int    `json:"row"`
	Item  string `json:"item,omitempty"`
	Error string `json:"error"`
}

// Result summarises an import run.
type Result struct {
	Imported int        `json:"imported"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors"`
}

// Importer turns CSV rows into items, listings and ratings owned by one user.
type Importer struct {
	tx         store.TxManager
	categories CategoryResolver
	items      ItemWriter
	listings   ListingWriter
	log        *logrus.Entry
}

func New(tx store.TxManager, categories CategoryResolver, items ItemWriter, listings ListingWriter, logger *logrus.Logger) *Importer {
	return &Importer{
		tx:         tx,
		categories: categories,
		items:      items,
		listings:   listings,
		log:        logger.WithField("component", "importer"),
	}
}

// Import reads a header row followed by item rows. Each row is written in its
// own transaction, so a bad row is reported and skipped while the rest go
// through. A row the CSV reader cannot parse is reported the same way. Only an
// unreadable header aborts with a ValidationError.
func (im *Importer) Import(ctx context.Context, userID int64, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.Validation("file", "file is empty")
		}
		return nil, domain.Validation("file", fmt.Sprintf("CSV parse error: %v", err))
	}
	index := indexHeader(header)
	if _, ok := index[colItem]; !ok {
		return nil, domain.Validation("file", fmt.Sprintf("missing %q column", colItem))
	}

	res := &Result{Errors: make([]RowError, 0)}
	categoryIDs := make(map[string]int64)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: parseErr.StartLine, Error: fmt.Sprintf("CSV parse error: %v", parseErr.Err)})
			im.log.WithError(err).WithField("row", parseErr.StartLine).Warn("import row unreadable")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("importer: failed to read row: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		row := rowValues{index: index, record: record}
		if row.empty() {
			continue
		}

		if err := im.importRow(ctx, userID, row, categoryIDs); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: line, Item: row.get(colItem), Error: err.Error()})
			im.log.WithError(err).WithField("row", line).Warn("import row rejected")
			continue
		}
		res.Imported++
	}

	im.log.WithFields(logrus.Fields{"user_id": userID, "imported": res.Imported, "failed": res.Failed}).Info("import finished")
	return res, nil
}

func (im *Importer) importRow(ctx context.Context, userID int64, row rowValues, categoryIDs map[string]int64) error {
	req, err := row.itemRequest()
	if err != nil {
		return err
	}
	rating, err := row.ratingRequest()
	if err != nil {
		return err
	}

	// Categories are shared and idempotent, so they are resolved outside the
	// row transaction.
	if name := row.get(colCategory); name != "" {
		id, ok := categoryIDs[name]
		if !ok {
			c, err := im.categories.FindOrCreateRoot(ctx, name)
			if err != nil {
				return err
			}
			id = c.ID
			categoryIDs[name] = id
		}
		req.CategoryID = &id
	}

	return im.tx.ExecTx(ctx, func(ctx context.Context) error {
		item, err := im.items.CreateItem(ctx, userID, req)
		if err != nil {
			return err
		}
		if _, err := im.listings.CreateListing(ctx, userID, market.CreateListingRequest{
			ItemID:      item.ID,
			Price:       item.ResellValue,
			Description: req.Description,
		}); err != nil {
			return err
		}
		if rating != nil {
			if _, err := im.items.RateItem(ctx, item.ID, userID, *rating); err != nil {
				return err
			}
		}
		return nil
	})
}

func indexHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

type rowValues struct {
	index  map[string]int
	record []string
}

func (r rowValues) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r rowValues) empty() bool {
	for _, v := range r.record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (r rowValues) optional(col string) *string {
	if v := r.get(col); v != "" {
		return &v
	}
	return nil
}

func (r rowValues) money(col string) (float64, error) {
	v := r.get(col)
	v = strings.TrimPrefix(v, "£")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, domain.Validation(col, fmt.Sprintf("%q is not a number", r.get(col)))
	}
	return f, nil
}

func (r rowValues) itemRequest() (inventory.ItemRequest, error) {
	req := inventory.ItemRequest{
		Name:        r.get(colItem),
		Description: r.optional(colDescription),
		Condition:   r.optional(colCondition),
		Location:    r.optional(colLocation),
		ImageURL:    r.optional(colImageURL),
	}
	purchaseCol := colPurchased
	if r.get(purchaseCol) == "" {
		purchaseCol = colPurchaseValue
	}
	var err error
	if req.PurchasePrice, err = r.money(purchaseCol); err != nil {
		return req, err
	}
	if req.NewValue, err = r.money(colNewValue); err != nil {
		return req, err
	}
	if req.ResellValue, err = r.money(colResellValue); err != nil {
		return req, err
	}
	return req, nil
}

// ratingRequest returns nil when neither scale is filled in. A missing half
// of the pair counts as 0.
func (r rowValues) ratingRequest() (*inventory.RatingRequest, error) {
	want, need := r.get(colWant), r.get(colNeed)
	if want == "" && need == "" {
		return nil, nil
	}
	w, err := scale(colWant, want)
	if err != nil {
		return nil, err
	}
	n, err := scale(colNeed, need)
	if err != nil {
		return nil, err
	}
	return &inventory.RatingRequest{WantRating: &w, NeedRating: &n}, nil
}

func scale(col, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, domain.Validation(col, fmt.Sprintf("%q is not a number", v))
	}
	return int(f), nil
}
