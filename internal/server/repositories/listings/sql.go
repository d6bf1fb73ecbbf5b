// Package listings provides the SQL-backed Listing Store. Queries are written
// with '?' placeholders and rebound for the driver, so the same repository
// runs on SQLite and PostgreSQL.
package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swapboard/internal/common"
	"github.com/dmitrijs2005/swapboard/internal/dbx"
	"github.com/dmitrijs2005/swapboard/internal/server/models"
)

const selectColumns = `SELECT id,
	COALESCE(category, '') AS category,
	COALESCE(brand, '') AS brand,
	COALESCE(current_side, '') AS current_side,
	COALESCE(current_size, '') AS current_size,
	COALESCE(wanted_side, '') AS wanted_side,
	COALESCE(wanted_size, '') AS wanted_size,
	COALESCE(condition, '') AS condition,
	COALESCE(description, '') AS description,
	image,
	COALESCE(status, 'open') AS status
	FROM posts`

// SQLRepository implements Repository over a dbx.DBTX (*sqlx.DB or *sqlx.Tx).
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, f models.ListingFields, image *string) (int64, error) {
	query := r.db.Rebind(`INSERT INTO posts
		(category, brand, current_side, current_size, wanted_side, wanted_size, condition, description, image, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		f.Category, f.Brand, f.CurrentSide, f.CurrentSize, f.WantedSide, f.WantedSize,
		f.Condition, f.Description, image, models.StatusOpen,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}

	return id, nil
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*models.Listing, error) {
	result := []*models.Listing{}
	if err := r.db.SelectContext(ctx, &result, selectColumns+` ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("failed to select listings: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) ListByWantedSize(ctx context.Context, size string) ([]*models.Listing, error) {
	query := r.db.Rebind(selectColumns + ` WHERE wanted_size = ? ORDER BY id DESC`)

	result := []*models.Listing{}
	if err := r.db.SelectContext(ctx, &result, query, size); err != nil {
		return nil, fmt.Errorf("failed to select listings by wanted size: %w", err)
	}
	return result, nil
}

// MarkCompleted does not inspect rows affected: completing an unknown or
// already completed listing is not an error.
func (r *SQLRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := r.db.Rebind(`UPDATE posts SET status = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, models.StatusCompleted, id); err != nil {
		return fmt.Errorf("failed to complete listing %d: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	query := r.db.Rebind(selectColumns + ` WHERE id = ?`)

	l := &models.Listing{}
	err := r.db.GetContext(ctx, l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return l, nil
}
