package services

import (
	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
)

// canRead decides whether callerID may read the record: public Active
// records are readable by anyone (including anonymous callers), everything
// else only by its owner.
func canRead(callerID string, rec *models.FileRecord) bool {
	if rec.IsPublic() {
		return true
	}
	return callerID != "" && callerID == rec.OwnerID
}

// requireOwner gates every mutation: only the record's owner may proceed.
// Existence is checked before this is called, so a Forbidden answer never
// reveals whether a foreign id exists.
func requireOwner(callerID string, rec *models.FileRecord) error {
	if callerID == "" || callerID != rec.OwnerID {
		return common.ErrorForbidden
	}
	return nil
}
