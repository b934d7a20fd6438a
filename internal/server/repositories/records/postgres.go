// Package records provides PostgreSQL-backed persistence for file records
// plus an in-memory implementation used in tests.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/dbx"
	"github.com/avelichko/shelfdrive/internal/server/models"
)

// PostgresRepository implements record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, owner_id, title, author, description, blob_url, blob_name, visibility, starred, deleted_at, last_accessed_at, created_at, updated_at`

// Create inserts a new file record.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.FileRecord) error {
	query := `
		INSERT INTO file_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	var blobURL, blobName sql.NullString
	if rec.Blob != nil {
		blobURL = sql.NullString{String: rec.Blob.URL, Valid: true}
		blobName = sql.NullString{String: rec.Blob.OriginalName, Valid: true}
	}
	var deletedAt sql.NullTime
	if rec.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *rec.DeletedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerID, rec.Title, rec.Author, rec.Description,
		blobURL, blobName, string(rec.Visibility), rec.Starred,
		deletedAt, rec.LastAccessedAt, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID fetches one record by id regardless of lifecycle state.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM file_records WHERE id=$1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select record: %w", err)
	}
	return rec, nil
}

// List returns records matching the filter, sorted and limited per the
// filter. Results without an explicit order come back in creation order.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.FileRecord, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != "" {
		conds = append(conds, "owner_id="+arg(filter.OwnerID))
	}
	switch filter.State {
	case models.StateTrashed:
		conds = append(conds, "deleted_at IS NOT NULL")
	default:
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.StarredOnly {
		conds = append(conds, "starred=TRUE")
	}
	if filter.PublicOnly {
		conds = append(conds, "visibility="+arg(string(models.VisibilityPublic)))
	}

	query := `SELECT ` + recordColumns + ` FROM file_records WHERE ` + strings.Join(conds, " AND ")

	switch filter.Order {
	case OrderUpdatedDesc:
		query += " ORDER BY updated_at DESC"
	case OrderAccessedDesc:
		query += " ORDER BY last_accessed_at DESC"
	case OrderDeletedDesc:
		query += " ORDER BY deleted_at DESC"
	default:
		query += " ORDER BY created_at"
	}
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateDetails persists the mutable detail fields and stamps updated_at.
func (r *PostgresRepository) UpdateDetails(ctx context.Context, rec *models.FileRecord) error {
	query := `
		UPDATE file_records
		SET title=$2, author=$3, description=$4, blob_url=$5, blob_name=$6, visibility=$7, updated_at=$8
		WHERE id=$1;
	`
	var blobURL, blobName sql.NullString
	if rec.Blob != nil {
		blobURL = sql.NullString{String: rec.Blob.URL, Valid: true}
		blobName = sql.NullString{String: rec.Blob.OriginalName, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Author, rec.Description, blobURL, blobName,
		string(rec.Visibility), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// ToggleStarred flips the star flag in a single statement so concurrent
// toggles never lose an update, and returns the new value.
func (r *PostgresRepository) ToggleStarred(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE file_records
		SET starred = NOT starred, updated_at = NOW()
		WHERE id=$1
		RETURNING starred;
	`
	var starred bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&starred); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("failed to toggle star: %w", err)
	}
	return starred, nil
}

// MarkTrashed stamps deleted_at. Already trashed records are re-stamped.
func (r *PostgresRepository) MarkTrashed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE file_records SET deleted_at=$2, updated_at=$2 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// RestoreTrashed clears deleted_at. Active records are left as they are.
func (r *PostgresRepository) RestoreTrashed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE file_records SET deleted_at=NULL, updated_at=$2 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// TouchAccess stamps last_accessed_at only. updated_at is deliberately
// left alone: recency tracks "last opened", not "last edited".
func (r *PostgresRepository) TouchAccess(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE file_records SET last_accessed_at=$2 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// Delete hard-removes the record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM file_records WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// oneRowAffected maps the rows-affected count of a single-record statement
// to the repository contract: 0 rows means the id does not exist.
func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.FileRecord, error) {
	var (
		rec        models.FileRecord
		visibility string
		blobURL    sql.NullString
		blobName   sql.NullString
		deletedAt  sql.NullTime
	)
	if err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.Title, &rec.Author, &rec.Description,
		&blobURL, &blobName, &visibility, &rec.Starred,
		&deletedAt, &rec.LastAccessedAt, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Visibility = models.Visibility(visibility)
	if blobURL.Valid {
		rec.Blob = &models.BlobRef{URL: blobURL.String, OriginalName: blobName.String}
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rec.DeletedAt = &t
	}
	return &rec, nil
}
