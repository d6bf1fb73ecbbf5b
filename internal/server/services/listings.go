// Package services holds the board's use cases on top of the Listing Store
// and the Upload Handler.
package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/dmitrijs2005/swapboard/internal/server/models"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/listings"
)

// ImageStore is the part of images.Uploader the service needs.
type ImageStore interface {
	Store(ctx context.Context, fh *multipart.FileHeader) (*string, error)
	URL(name string) string
}

type ListingService struct {
	repo    listings.Repository
	images  ImageStore
	metrics *Metrics
	logger  logging.Logger
}

func NewListingService(repo listings.Repository, images ImageStore, metrics *Metrics, logger logging.Logger) *ListingService {
	return &ListingService{
		repo:    repo,
		images:  images,
		metrics: metrics,
		logger:  logger.With("module", "listing_service"),
	}
}

// List returns all listings, or only those whose wanted size equals
// wantedSize when it is non-empty. Newest first in both cases.
func (s *ListingService) List(ctx context.Context, wantedSize string) ([]*models.Listing, error) {
	if wantedSize == "" {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByWantedSize(ctx, wantedSize)
}

// Create stores the optional image and inserts an open listing. A file that
// is missing or has a disallowed extension is dropped silently and the
// listing is created without an image.
func (s *ListingService) Create(ctx context.Context, fields models.ListingFields, file *multipart.FileHeader) (int64, error) {
	image, err := s.images.Store(ctx, file)
	if err != nil {
		return 0, fmt.Errorf("image upload: %w", err)
	}

	if image == nil && file != nil && file.Filename != "" {
		s.metrics.ImageRejected.Inc()
		s.logger.Debug(ctx, "upload ignored", "filename", file.Filename)
	}

	id, err := s.repo.Create(ctx, fields, image)
	if err != nil {
		return 0, err
	}

	s.metrics.Created.Inc()
	if image != nil {
		s.metrics.WithImage.Inc()
		s.logger.Info(ctx, "listing created", "id", id, "image", *image)
	} else {
		s.logger.Info(ctx, "listing created", "id", id)
	}

	return id, nil
}

// Complete marks the listing as completed. Unknown ids are not an error.
func (s *ListingService) Complete(ctx context.Context, id int64) error {
	if err := s.repo.MarkCompleted(ctx, id); err != nil {
		return err
	}
	s.metrics.Completed.Inc()
	s.logger.Info(ctx, "listing completed", "id", id)
	return nil
}

// ImageURL resolves a stored image name for rendering.
func (s *ListingService) ImageURL(name string) string {
	return s.images.URL(name)
}
