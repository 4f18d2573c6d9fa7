package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// VideoFilter narrows List results. Zero values match everything.
type VideoFilter struct {
	OwnerID string
}

// VideoRepository exposes data access for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	List(ctx context.Context, filter VideoFilter) ([]models.Video, error)
	// Update persists title, description, thumbnail, publish flag and updated_at.
	Update(ctx context.Context, video models.Video) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (bool, error)
}
