package services

import (
	"fmt"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
	"github.com/avelichko/shelfdrive/internal/server/repositories/records"
)

// View names the read projections exposed by the service.
type View string

const (
	ViewMyFiles View = "my-files"
	ViewPublic  View = "public"
	ViewStarred View = "starred"
	ViewRecent  View = "recent"
	ViewTrash   View = "trash"
)

// recentLimit caps the recent view at the last 20 accessed records.
const recentLimit = 20

// viewFilter maps a view to its store-level filter for the given caller.
// Every view except public is owner-scoped and requires an authenticated
// caller.
func viewFilter(view View, callerID string) (records.ListFilter, error) {
	if view != ViewPublic && callerID == "" {
		return records.ListFilter{}, common.ErrorForbidden
	}

	switch view {
	case ViewMyFiles:
		return records.ListFilter{
			OwnerID: callerID,
			State:   models.StateActive,
		}, nil
	case ViewPublic:
		return records.ListFilter{
			State:      models.StateActive,
			PublicOnly: true,
		}, nil
	case ViewStarred:
		return records.ListFilter{
			OwnerID:     callerID,
			State:       models.StateActive,
			StarredOnly: true,
			Order:       records.OrderUpdatedDesc,
		}, nil
	case ViewRecent:
		return records.ListFilter{
			OwnerID: callerID,
			State:   models.StateActive,
			Order:   records.OrderAccessedDesc,
			Limit:   recentLimit,
		}, nil
	case ViewTrash:
		return records.ListFilter{
			OwnerID: callerID,
			State:   models.StateTrashed,
			Order:   records.OrderDeletedDesc,
		}, nil
	default:
		return records.ListFilter{}, fmt.Errorf("%w: unknown view %q", common.ErrorValidation, view)
	}
}

// authorizeView drops any record the caller may not read. The filters
// above already encode ownership and visibility; this second pass makes
// sure a view can never leak a record past the read rule.
func authorizeView(callerID string, recs []*models.FileRecord, view View) []*models.FileRecord {
	result := recs[:0]
	for _, rec := range recs {
		if view == ViewTrash {
			// trashed records are never public; owner-only
			if callerID != "" && rec.OwnerID == callerID {
				result = append(result, rec)
			}
			continue
		}
		if canRead(callerID, rec) {
			result = append(result, rec)
		}
	}
	return result
}
