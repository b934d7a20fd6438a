// Package services implements the file-record lifecycle engine: creation,
// owner-gated mutations, the trash/restore/purge state machine, the star
// flag, recency tracking, and the named read views. It is the only entry
// point the transport layer talks to.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
	"github.com/avelichko/shelfdrive/internal/server/repositories/records"
	"github.com/google/uuid"
)

// RecordService is the facade over the record repository. It is stateless
// per request; concurrent operations on the same record settle
// last-write-wins at the store.
type RecordService struct {
	repo records.Repository
	now  func() time.Time
}

// NewRecordService constructs the service over the given repository.
func NewRecordService(repo records.Repository) *RecordService {
	return &RecordService{
		repo: repo,
		now:  time.Now,
	}
}

// CreateParams carries the caller-supplied fields for a new record.
type CreateParams struct {
	Title       string
	Author      string
	Description string
	// Blob is the upload collaborator's result, if a file was attached.
	Blob *models.BlobRef
	// Public requests public visibility; the default is private.
	Public bool
}

// UpdateParams carries optional field updates. Nil means "leave unchanged".
type UpdateParams struct {
	Title       *string
	Author      *string
	Description *string
	Public      *bool
	// Blob replaces the attached file reference when set.
	Blob *models.BlobRef
}

// Create validates and stores a new Active, unstarred record owned by
// callerID.
func (s *RecordService) Create(ctx context.Context, callerID string, p CreateParams) (*models.FileRecord, error) {
	if callerID == "" {
		return nil, common.ErrorForbidden
	}

	title := strings.TrimSpace(p.Title)
	author := strings.TrimSpace(p.Author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", common.ErrorValidation)
	}

	visibility := models.VisibilityPrivate
	if p.Public {
		visibility = models.VisibilityPublic
	}

	now := s.now()
	rec := &models.FileRecord{
		ID:             uuid.NewString(),
		OwnerID:        callerID,
		Title:          title,
		Author:         author,
		Description:    p.Description,
		Blob:           p.Blob,
		Visibility:     visibility,
		LastAccessedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

// Get resolves a single Active record under the public-or-owner read rule
// and records the access for authenticated callers. Trashed records are
// not resolvable, even by their owner, until restored.
func (s *RecordService) Get(ctx context.Context, callerID, id string) (*models.FileRecord, error) {
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.State() == models.StateTrashed {
		return nil, common.ErrorNotFound
	}
	if !canRead(callerID, rec) {
		return nil, common.ErrorForbidden
	}

	// Recency is a side effect of reading, not of writing: anonymous
	// public reads do not count.
	if callerID != "" {
		now := s.now()
		if err := s.repo.TouchAccess(ctx, rec.ID, now); err != nil {
			return nil, storeError(err)
		}
		rec.LastAccessedAt = now
	}
	return rec, nil
}

// Update applies field updates (rename among them) to an owner's record.
func (s *RecordService) Update(ctx context.Context, callerID, id string, p UpdateParams) (*models.FileRecord, error) {
	rec, err := s.fetchOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", common.ErrorValidation)
		}
		rec.Title = title
	}
	if p.Author != nil {
		author := strings.TrimSpace(*p.Author)
		if author == "" {
			return nil, fmt.Errorf("%w: author must not be empty", common.ErrorValidation)
		}
		rec.Author = author
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.Public != nil {
		rec.Visibility = models.VisibilityPrivate
		if *p.Public {
			rec.Visibility = models.VisibilityPublic
		}
	}
	if p.Blob != nil {
		rec.Blob = p.Blob
	}
	rec.UpdatedAt = s.now()

	if err := s.repo.UpdateDetails(ctx, rec); err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

// AttachBlob replaces the record's blob reference. Lifecycle and star
// state are untouched.
func (s *RecordService) AttachBlob(ctx context.Context, callerID, id string, blob models.BlobRef) (*models.FileRecord, error) {
	return s.Update(ctx, callerID, id, UpdateParams{Blob: &blob})
}

// Trash moves the record to the recycle bin. Idempotent: trashing a
// trashed record just re-stamps its deletion time.
func (s *RecordService) Trash(ctx context.Context, callerID, id string) error {
	rec, err := s.fetchOwned(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.MarkTrashed(ctx, rec.ID, s.now()); err != nil {
		return storeError(err)
	}
	return nil
}

// Restore returns a trashed record to the active state and returns it.
// Idempotent: restoring an active record is a no-op.
func (s *RecordService) Restore(ctx context.Context, callerID, id string) (*models.FileRecord, error) {
	rec, err := s.fetchOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repo.RestoreTrashed(ctx, rec.ID, now); err != nil {
		return nil, storeError(err)
	}
	rec.Restore()
	rec.UpdatedAt = now
	return rec, nil
}

// Purge hard-removes the record from the store. Permitted from Active as
// well as Trashed state; a second call finds nothing and reports NotFound.
func (s *RecordService) Purge(ctx context.Context, callerID, id string) error {
	rec, err := s.fetchOwned(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rec.ID); err != nil {
		return storeError(err)
	}
	return nil
}

// ToggleStar flips the star flag and returns the new value. Works in any
// lifecycle state; star and lifecycle are orthogonal.
func (s *RecordService) ToggleStar(ctx context.Context, callerID, id string) (bool, error) {
	rec, err := s.fetchOwned(ctx, callerID, id)
	if err != nil {
		return false, err
	}
	starred, err := s.repo.ToggleStarred(ctx, rec.ID)
	if err != nil {
		return false, storeError(err)
	}
	return starred, nil
}

// ListView resolves one of the named views for the caller.
func (s *RecordService) ListView(ctx context.Context, callerID string, view View) ([]*models.FileRecord, error) {
	filter, err := viewFilter(view, callerID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return authorizeView(callerID, recs, view), nil
}

// fetch validates the id shape and loads the record. A malformed id is a
// validation failure, rejected before any store lookup.
func (s *RecordService) fetch(ctx context.Context, id string) (*models.FileRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid record id", common.ErrorValidation)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return rec, nil
}

// fetchOwned loads the record and gates it for mutation: existence first
// (NotFound), then ownership (Forbidden).
func (s *RecordService) fetchOwned(ctx context.Context, callerID, id string) (*models.FileRecord, error) {
	rec, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(callerID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// storeError passes sentinel kinds through and classifies anything else
// the store reports as a persistence failure. The service never retries;
// retry policy belongs to the caller.
func storeError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%w: %v", common.ErrorPersistence, err)
}
