// Package models defines server-side data models persisted in the database.
package models

import "time"

// Visibility controls who may read a record.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// LifecycleState is the soft-delete state of a record. It is never stored
// directly: it is derived from DeletedAt, so the state and the timestamp
// cannot drift apart. A purged record has no state because it no longer
// exists.
type LifecycleState string

const (
	StateActive  LifecycleState = "active"
	StateTrashed LifecycleState = "trashed"
)

// BlobRef points at the record's bytes in external object storage.
// The server never inspects the URL; it is an opaque value produced by
// the upload collaborator.
type BlobRef struct {
	// URL is the durable object-storage location of the content.
	URL string `json:"url"`
	// OriginalName is the client-supplied file name at upload time.
	OriginalName string `json:"originalName"`
}

// FileRecord is server-side metadata for a user-submitted file. The file
// content itself lives in object storage (see BlobRef).
type FileRecord struct {
	// ID is assigned at creation and immutable.
	ID string `json:"id"`
	// OwnerID is the identity that created the record. Immutable; the
	// owner is the only identity allowed to mutate the record.
	OwnerID string `json:"ownerId"`

	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`

	// Blob is nil until a file is attached.
	Blob *BlobRef `json:"blob,omitempty"`

	Visibility Visibility `json:"visibility"`
	Starred    bool       `json:"starred"`

	// DeletedAt is set while the record sits in the recycle bin and is
	// nil otherwise. See State.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	// LastAccessedAt is the time of the last successful single-record
	// read, distinct from UpdatedAt.
	LastAccessedAt time.Time `json:"lastAccessedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State derives the lifecycle state from DeletedAt.
func (r *FileRecord) State() LifecycleState {
	if r.DeletedAt != nil {
		return StateTrashed
	}
	return StateActive
}

// IsPublic reports whether the record is publicly readable. Trashed
// records are never public, whatever their visibility flag says.
func (r *FileRecord) IsPublic() bool {
	return r.Visibility == VisibilityPublic && r.State() == StateActive
}

// Trash moves the record to the recycle bin, stamping DeletedAt with now.
// Calling it on an already trashed record re-stamps the timestamp; it is
// not an error, so clients may retry freely.
func (r *FileRecord) Trash(now time.Time) {
	r.DeletedAt = &now
}

// Restore returns the record to the active state. Idempotent: restoring
// an active record is a no-op.
func (r *FileRecord) Restore() {
	r.DeletedAt = nil
}
