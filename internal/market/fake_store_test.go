package market

import (
	"context"
	"sync"
	"time"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"
)

// fakeStore is an in-memory Store. Writes made inside ExecTx record an undo
// step so a failed transaction leaves no trace.
type fakeStore struct {
	mu           sync.Mutex
	items        map[int64]domain.Item
	listings     map[int64]domain.Listing
	transactions []domain.Transaction
	nextListing  int64

	// failTransfer makes TransferItem fail after the listing was claimed.
	failTransfer bool
	// beforeClaim runs at the start of MarkListingSold, to line racers up.
	beforeClaim func()
}

type fakeTx struct{ undo []func() }

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]domain.Item), listings: make(map[int64]domain.Listing)}
}

func (f *fakeStore) record(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		return fn(ctx)
	}
	tx := &fakeTx{}
	if err := fn(context.WithValue(ctx, fakeTxKey{}, tx)); err != nil {
		f.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) addItem(item domain.Item) {
	f.items[item.ID] = item
}

func (f *fakeStore) GetItemByID(_ context.Context, id int64) (*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return &item, nil
}

func (f *fakeStore) CreateListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, other := range f.listings {
		if other.ItemID == l.ItemID && other.Status == domain.ListingActive {
			return nil, store.ErrListingActiveExists
		}
	}
	f.nextListing++
	created := *l
	created.ID = f.nextListing
	created.CreatedAt, created.UpdatedAt = time.Now(), time.Now()
	f.listings[created.ID] = created
	f.record(ctx, func() { delete(f.listings, created.ID) })
	return &created, nil
}

func (f *fakeStore) GetListingByID(_ context.Context, id int64) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, store.ErrListingNotFound
	}
	return &l, nil
}

func (f *fakeStore) GetListingView(ctx context.Context, id int64) (*domain.ListingView, error) {
	l, err := f.GetListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.ListingView{Listing: *l, ItemName: f.items[l.ItemID].Name}, nil
}

func (f *fakeStore) ListActiveListings(_ context.Context) ([]domain.ListingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ListingView
	for _, l := range f.listings {
		if l.Status == domain.ListingActive {
			out = append(out, domain.ListingView{Listing: l, ItemName: f.items[l.ItemID].Name})
		}
	}
	return out, nil
}

func (f *fakeStore) FindActiveListingByItem(_ context.Context, itemID int64) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listings {
		if l.ItemID == itemID && l.Status == domain.ListingActive {
			found := l
			return &found, nil
		}
	}
	return nil, store.ErrListingNotFound
}

func (f *fakeStore) UpdateActiveListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.listings[l.ID]
	if !ok || current.Status != domain.ListingActive {
		return nil, store.ErrListingNotActive
	}
	updated := *l
	updated.UpdatedAt = time.Now()
	f.listings[l.ID] = updated
	f.record(ctx, func() { f.listings[l.ID] = current })
	return &updated, nil
}

func (f *fakeStore) DeleteActiveListing(_ context.Context, id, sellerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok || l.SellerID != sellerID || l.Status != domain.ListingActive {
		return store.ErrListingNotActive
	}
	delete(f.listings, id)
	return nil
}

func (f *fakeStore) GetPurchaseTarget(_ context.Context, listingID int64) (*domain.PurchaseTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[listingID]
	if !ok {
		return nil, store.ErrListingNotFound
	}
	return &domain.PurchaseTarget{Listing: l, OwnerID: f.items[l.ItemID].UserID}, nil
}

func (f *fakeStore) MarkListingSold(ctx context.Context, id int64) (*domain.Listing, error) {
	if f.beforeClaim != nil {
		f.beforeClaim()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok || l.Status != domain.ListingActive {
		return nil, store.ErrListingNotActive
	}
	before := l
	l.Status = domain.ListingSold
	f.listings[id] = l
	f.record(ctx, func() { f.listings[id] = before })
	return &l, nil
}

func (f *fakeStore) TransferItem(ctx context.Context, itemID, fromUserID, toUserID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if f.failTransfer || !ok || item.UserID != fromUserID {
		return store.ErrOwnershipChanged
	}
	before := item
	item.UserID = toUserID
	f.items[itemID] = item
	f.record(ctx, func() { f.items[itemID] = before })
	return nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, txn *domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *txn
	created.ID = int64(len(f.transactions) + 1)
	created.CreatedAt = time.Now()
	f.transactions = append(f.transactions, created)
	n := len(f.transactions) - 1
	f.record(ctx, func() { f.transactions = f.transactions[:n] })
	return &created, nil
}

func (f *fakeStore) ListTransactionsForUser(_ context.Context, userID int64) ([]domain.TransactionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TransactionView
	for _, t := range f.transactions {
		if t.BuyerID == userID || t.SellerID == userID {
			out = append(out, domain.TransactionView{Transaction: t})
		}
	}
	return out, nil
}

func (f *fakeStore) GetTransactionForUser(_ context.Context, id, userID int64) (*domain.TransactionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.ID == id && (t.BuyerID == userID || t.SellerID == userID) {
			return &domain.TransactionView{Transaction: t}, nil
		}
	}
	return nil, store.ErrTransactionNotFound
}
