package records

import (
	"context"
	"time"

	"github.com/avelichko/shelfdrive/internal/server/models"
)

// Order selects the sort applied by List.
type Order int

const (
	// OrderNone leaves the store's stable default order (creation order).
	OrderNone Order = iota
	// OrderUpdatedDesc sorts by updated_at, newest first.
	OrderUpdatedDesc
	// OrderAccessedDesc sorts by last_accessed_at, newest first.
	OrderAccessedDesc
	// OrderDeletedDesc sorts by deleted_at, newest first.
	OrderDeletedDesc
)

// ListFilter describes a filtered, sorted, limited query over file records.
// Zero values mean "no constraint" except State, which is always applied.
type ListFilter struct {
	// OwnerID restricts results to one owner when non-empty.
	OwnerID string
	// State selects active or trashed records.
	State models.LifecycleState
	// StarredOnly keeps only starred records.
	StarredOnly bool
	// PublicOnly keeps only publicly visible records.
	PublicOnly bool

	Order Order
	// Limit caps the result size when positive.
	Limit int
}

// Repository persists file records. Implementations must return
// common.ErrorNotFound from single-record operations when no row matches
// the id, and must apply each mutation as one atomic store operation so
// concurrent writers settle last-write-wins without losing whole updates.
type Repository interface {
	// Create inserts a new record.
	Create(ctx context.Context, rec *models.FileRecord) error

	// GetByID fetches one record regardless of lifecycle state.
	GetByID(ctx context.Context, id string) (*models.FileRecord, error)

	// List returns records matching the filter in the requested order.
	List(ctx context.Context, filter ListFilter) ([]*models.FileRecord, error)

	// UpdateDetails persists title, author, description, blob ref and
	// visibility, stamping updated_at. Lifecycle and star state are not
	// touched.
	UpdateDetails(ctx context.Context, rec *models.FileRecord) error

	// ToggleStarred atomically flips the star flag and returns the new
	// value.
	ToggleStarred(ctx context.Context, id string) (bool, error)

	// MarkTrashed stamps deleted_at with at. Re-stamping an already
	// trashed record is allowed.
	MarkTrashed(ctx context.Context, id string, at time.Time) error

	// RestoreTrashed clears deleted_at. Restoring an active record is a
	// no-op.
	RestoreTrashed(ctx context.Context, id string, at time.Time) error

	// TouchAccess stamps last_accessed_at without touching updated_at:
	// recency tracks reads, not edits.
	TouchAccess(ctx context.Context, id string, at time.Time) error

	// Delete hard-removes the record. Irreversible.
	Delete(ctx context.Context, id string) error
}
