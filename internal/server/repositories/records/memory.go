package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
)

// MemoryRepository is a mutex-guarded, map-backed Repository used by unit
// tests and local development. Semantics mirror PostgresRepository:
// single-record operations return common.ErrorNotFound for unknown ids,
// and every mutation is applied atomically under the lock.
type MemoryRepository struct {
	mu   sync.RWMutex
	recs map[string]*memoryRow
	seq  int64
}

type memoryRow struct {
	rec *models.FileRecord
	seq int64 // insertion order, the stable default sort
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{recs: make(map[string]*memoryRow)}
}

func cloneRecord(rec *models.FileRecord) *models.FileRecord {
	c := *rec
	if rec.Blob != nil {
		b := *rec.Blob
		c.Blob = &b
	}
	if rec.DeletedAt != nil {
		t := *rec.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, rec *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.recs[rec.ID] = &memoryRow{rec: cloneRecord(rec), seq: r.seq}
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.recs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneRecord(row.rec), nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]*models.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*memoryRow
	for _, row := range r.recs {
		rec := row.rec
		if filter.OwnerID != "" && rec.OwnerID != filter.OwnerID {
			continue
		}
		if filter.State == models.StateTrashed {
			if rec.State() != models.StateTrashed {
				continue
			}
		} else if rec.State() != models.StateActive {
			continue
		}
		if filter.StarredOnly && !rec.Starred {
			continue
		}
		if filter.PublicOnly && rec.Visibility != models.VisibilityPublic {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].rec, rows[j].rec
		switch filter.Order {
		case OrderUpdatedDesc:
			return a.UpdatedAt.After(b.UpdatedAt)
		case OrderAccessedDesc:
			return a.LastAccessedAt.After(b.LastAccessedAt)
		case OrderDeletedDesc:
			return timeOrZero(a.DeletedAt).After(timeOrZero(b.DeletedAt))
		default:
			return rows[i].seq < rows[j].seq
		}
	})

	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	result := make([]*models.FileRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, cloneRecord(row.rec))
	}
	return result, nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (r *MemoryRepository) UpdateDetails(ctx context.Context, rec *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.recs[rec.ID]
	if !ok {
		return common.ErrorNotFound
	}
	row.rec.Title = rec.Title
	row.rec.Author = rec.Author
	row.rec.Description = rec.Description
	if rec.Blob != nil {
		b := *rec.Blob
		row.rec.Blob = &b
	} else {
		row.rec.Blob = nil
	}
	row.rec.Visibility = rec.Visibility
	row.rec.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *MemoryRepository) ToggleStarred(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.recs[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	row.rec.Starred = !row.rec.Starred
	row.rec.UpdatedAt = time.Now()
	return row.rec.Starred, nil
}

func (r *MemoryRepository) MarkTrashed(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.recs[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.rec.Trash(at)
	row.rec.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) RestoreTrashed(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.recs[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.rec.Restore()
	row.rec.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) TouchAccess(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.recs[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.rec.LastAccessedAt = at
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.recs, id)
	return nil
}
