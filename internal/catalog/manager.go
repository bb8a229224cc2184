// Package catalog maintains the category hierarchy: materialized paths and
// levels, sibling name uniqueness, cycle prevention and descendant rewrites
// on re-parenting.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

const maxNameLength = 255

// Store is the persistence the manager needs.
type Store interface {
	store.CategoryStorer
	store.TxManager
}

// CreateCategoryRequest carries the fields of a new category.
type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

// UpdateCategoryRequest replaces name, description and parent. A nil ParentID
// makes the category a root.
type UpdateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

// Manager owns every write to the category tree.
type Manager struct {
	store Store
	log   *logrus.Entry
}

// NewManager creates a Manager.
func NewManager(s Store, logger *logrus.Logger) *Manager {
	return &Manager{store: s, log: logger.WithField("component", "catalog")}
}

func (r *CreateCategoryRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return domain.FromValidation(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&r.ParentID, validation.Min(int64(1))),
	))
}

func (r *UpdateCategoryRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return domain.FromValidation(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&r.ParentID, validation.Min(int64(1))),
	))
}

// Create inserts a category under req.ParentID, or as a root.
func (m *Manager) Create(ctx context.Context, req CreateCategoryRequest) (*domain.CategoryNode, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var created *domain.Category
	err := m.store.ExecTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockCategories(ctx); err != nil {
			return err
		}
		level := 0
		var parent *domain.Category
		if req.ParentID != nil {
			p, err := m.store.GetCategoryByID(ctx, *req.ParentID)
			if err != nil {
				return m.mapStoreError(err, *req.ParentID)
			}
			parent = p
			level = p.Level + 1
		}
		if err := m.ensureUniqueSibling(ctx, req.ParentID, req.Name, 0); err != nil {
			return err
		}

		c, err := m.store.CreateCategory(ctx, &domain.Category{
			Name:        req.Name,
			Description: req.Description,
			ParentID:    req.ParentID,
			Level:       level,
		})
		if err != nil {
			return m.mapStoreError(err, 0)
		}
		c.Path = RootPath(c.ID)
		if parent != nil {
			c.Path = ChildPath(parent.Path, c.ID)
		}
		if err := m.store.SetCategoryPath(ctx, c.ID, c.Path); err != nil {
			return fmt.Errorf("catalog: failed to set path of category %d: %w", c.ID, err)
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"id": created.ID, "name": created.Name, "path": created.Path}).Info("category created")
	return m.Get(ctx, created.ID)
}

// Get returns one category decorated with its name path.
func (m *Manager) Get(ctx context.Context, id int64) (*domain.CategoryNode, error) {
	tree, err := m.loadTree(ctx)
	if err != nil {
		return nil, err
	}
	node, ok := tree.Node(id)
	if !ok {
		return nil, domain.NotFound("category", id)
	}
	return &node, nil
}

// Subtree returns id followed by all its descendants in pre-order.
func (m *Manager) Subtree(ctx context.Context, id int64) ([]domain.CategoryNode, error) {
	tree, err := m.loadTree(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.Get(id); !ok {
		return nil, domain.NotFound("category", id)
	}
	return tree.Subtree(id), nil
}

// List returns the whole forest in pre-order.
func (m *Manager) List(ctx context.Context) ([]domain.CategoryNode, error) {
	tree, err := m.loadTree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Flatten(), nil
}

// FindOrCreateRoot returns the root category called name, creating it if needed.
func (m *Manager) FindOrCreateRoot(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	existing, err := m.store.FindSiblingByName(ctx, nil, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrCategoryNotFound) {
		return nil, fmt.Errorf("catalog: failed to look up root %q: %w", name, err)
	}
	node, err := m.Create(ctx, CreateCategoryRequest{Name: name})
	if err != nil {
		// Lost a race with another importer; the winner's row is what we want.
		if errors.Is(err, domain.ErrConflict) {
			if existing, lookupErr := m.store.FindSiblingByName(ctx, nil, name); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return &node.Category, nil
}

// Update renames, re-describes and possibly re-parents a category. A move
// rewrites the path and level of the category and of every descendant in the
// same transaction, holding the tree write lock.
func (m *Manager) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*domain.CategoryNode, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.ParentID != nil && *req.ParentID == id {
		return nil, &domain.CycleError{CategoryID: id, ParentID: id}
	}

	var moved int
	err := m.store.ExecTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockCategories(ctx); err != nil {
			return err
		}
		current, err := m.store.GetCategoryByID(ctx, id)
		if err != nil {
			return m.mapStoreError(err, id)
		}

		next := *current
		next.Name = req.Name
		next.Description = req.Description
		next.ParentID = req.ParentID

		reparent := !sameParent(current.ParentID, req.ParentID)
		if reparent {
			if req.ParentID == nil {
				next.Level = 0
				next.Path = RootPath(id)
			} else {
				parent, err := m.store.GetCategoryByID(ctx, *req.ParentID)
				if err != nil {
					return m.mapStoreError(err, *req.ParentID)
				}
				if PathContains(parent.Path, id) {
					return &domain.CycleError{CategoryID: id, ParentID: parent.ID}
				}
				next.Level = parent.Level + 1
				next.Path = ChildPath(parent.Path, id)
			}
		}

		if reparent || next.Name != current.Name {
			if err := m.ensureUniqueSibling(ctx, next.ParentID, next.Name, id); err != nil {
				return err
			}
		}

		if _, err := m.store.UpdateCategory(ctx, &next); err != nil {
			return m.mapStoreError(err, id)
		}
		if !reparent {
			return nil
		}

		all, err := m.store.ListCategories(ctx)
		if err != nil {
			return err
		}
		updates := rebase(NewTree(all), id, next.Level, next.Path)
		moved = len(updates)
		return m.store.UpdateCategoryPaths(ctx, updates)
	})
	if err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{"id": id, "parent_id": req.ParentID, "descendants_moved": moved}).Info("category updated")
	return m.Get(ctx, id)
}

// Delete removes a category that has no children and no items.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	err := m.store.ExecTx(ctx, func(ctx context.Context) error {
		if err := m.store.LockCategories(ctx); err != nil {
			return err
		}
		if _, err := m.store.GetCategoryByID(ctx, id); err != nil {
			return m.mapStoreError(err, id)
		}
		children, err := m.store.CountChildCategories(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return domain.Conflict("category", id, "category %d has %d child categories", id, children)
		}
		items, err := m.store.CountItemsInCategory(ctx, id)
		if err != nil {
			return err
		}
		if items > 0 {
			return domain.Conflict("category", id, "category %d is in use by %d items", id, items)
		}
		if err := m.store.DeleteCategory(ctx, id); err != nil {
			return m.mapStoreError(err, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.WithField("id", id).Info("category deleted")
	return nil
}

// rebase computes the new level and path of every descendant of id once id
// itself sits at level/path.
func rebase(tree *Tree, id int64, level int, path string) []store.PathUpdate {
	paths := map[int64]string{id: path}
	var updates []store.PathUpdate
	tree.Walk(id, func(c domain.Category, depth int) bool {
		if c.ID == id {
			return true
		}
		p := ChildPath(paths[*c.ParentID], c.ID)
		paths[c.ID] = p
		updates = append(updates, store.PathUpdate{ID: c.ID, Level: level + depth, Path: p})
		return true
	})
	return updates
}

func (m *Manager) ensureUniqueSibling(ctx context.Context, parentID *int64, name string, selfID int64) error {
	sibling, err := m.store.FindSiblingByName(ctx, parentID, name)
	if errors.Is(err, store.ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("catalog: sibling lookup failed: %w", err)
	}
	if sibling.ID == selfID {
		return nil
	}
	return domain.Conflict("category", sibling.ID, "a category named %q already exists at this level", name)
}

func (m *Manager) loadTree(ctx context.Context) (*Tree, error) {
	all, err := m.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return NewTree(all), nil
}

func (m *Manager) mapStoreError(err error, id int64) error {
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		return domain.NotFound("category", id)
	case errors.Is(err, store.ErrCategoryNameExists):
		return domain.Conflict("category", id, "a category with this name already exists at this level")
	case errors.Is(err, store.ErrReferenced):
		return domain.Conflict("category", id, "category %d is still referenced", id)
	}
	return err
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
