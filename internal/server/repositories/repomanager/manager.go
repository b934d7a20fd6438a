package repomanager

import (
	"context"
	"database/sql"

	"github.com/avelichko/shelfdrive/internal/dbx"
	"github.com/avelichko/shelfdrive/internal/server/repositories/records"
)

// RepositoryManager vends repositories bound to a DBTX (so callers can run
// them inside transactions) and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Records(db dbx.DBTX) records.Repository
}
