package catalog

import (
	"context"
	"sync"
	"time"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"
)

// fakeStore keeps categories in memory. ExecTx takes a snapshot and restores
// it when fn fails, which is enough to observe rollback behaviour.
type fakeStore struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	nextID     int64
	categories map[int64]domain.Category
	items      map[int64]int // category id -> item count
	locks      int
	failPaths  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{categories: make(map[int64]domain.Category), items: make(map[int64]int)}
}

type fakeTxKey struct{}

func (f *fakeStore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snapshot := make(map[int64]domain.Category, len(f.categories))
	for k, v := range f.categories {
		snapshot[k] = v
	}
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.mu.Lock()
		f.categories = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ParentID != nil {
		if _, ok := f.categories[*c.ParentID]; !ok {
			return nil, store.ErrCategoryNotFound
		}
	}
	for _, other := range f.categories {
		if other.Name == c.Name && sameParent(other.ParentID, c.ParentID) {
			return nil, store.ErrCategoryNameExists
		}
	}
	f.nextID++
	now := time.Now()
	created := *c
	created.ID = f.nextID
	created.CreatedAt, created.UpdatedAt = now, now
	f.categories[created.ID] = created
	return &created, nil
}

func (f *fakeStore) SetCategoryPath(_ context.Context, id int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return store.ErrCategoryNotFound
	}
	c.Path = path
	f.categories[id] = c
	return nil
}

func (f *fakeStore) GetCategoryByID(_ context.Context, id int64) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return &c, nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) FindSiblingByName(_ context.Context, parentID *int64, name string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name && sameParent(c.ParentID, parentID) {
			found := c
			return &found, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (f *fakeStore) UpdateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return nil, store.ErrCategoryNotFound
	}
	updated := *c
	updated.UpdatedAt = time.Now()
	f.categories[c.ID] = updated
	return &updated, nil
}

func (f *fakeStore) UpdateCategoryPaths(_ context.Context, updates []store.PathUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range updates {
		if f.failPaths && i == len(updates)-1 {
			return store.ErrCategoryNotFound
		}
		c, ok := f.categories[u.ID]
		if !ok {
			return store.ErrCategoryNotFound
		}
		c.Level, c.Path = u.Level, u.Path
		f.categories[u.ID] = c
	}
	return nil
}

func (f *fakeStore) LockCategories(ctx context.Context) error {
	if ctx.Value(fakeTxKey{}) == nil {
		panic("LockCategories outside ExecTx")
	}
	f.mu.Lock()
	f.locks++
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) CountChildCategories(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountItemsInCategory(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	delete(f.categories, id)
	return nil
}
