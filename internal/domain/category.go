package domain

import "time"

// PathSeparator joins ancestor ids in Category.Path, e.g. "1.2.7".
const PathSeparator = "."

// Category is a node of the global, admin-curated classification tree.
// Level and Path are stored and computed at write time: root level is 0 and a
// root's path is its own id.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	ParentID    *int64    `json:"parent_id,omitempty" db:"parent_id"`
	Level       int       `json:"level" db:"level"`
	Path        string    `json:"path" db:"path"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryNode is a category as returned to readers: the stored row plus the
// derived ancestor names and a children flag.
type CategoryNode struct {
	Category
	NamePath    []string `json:"name_path"`
	HasChildren bool     `json:"has_children"`
}
