package listings

import (
	"context"

	"github.com/dmitrijs2005/swapboard/internal/server/models"
)

// Repository is the Listing Store: the posts table and nothing else.
type Repository interface {
	// Create inserts an open listing and returns its generated id.
	Create(ctx context.Context, fields models.ListingFields, image *string) (int64, error)

	// ListAll returns every listing, newest (highest id) first.
	ListAll(ctx context.Context) ([]*models.Listing, error)

	// ListByWantedSize returns listings whose wanted_size equals size exactly,
	// newest first. No match yields an empty slice.
	ListByWantedSize(ctx context.Context, size string) ([]*models.Listing, error)

	// MarkCompleted sets the listing's status to completed. Unknown ids are a no-op.
	MarkCompleted(ctx context.Context, id int64) error

	// GetByID returns one listing or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
}
