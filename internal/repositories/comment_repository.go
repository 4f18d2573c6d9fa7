package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByVideo(ctx context.Context, videoID string) (int64, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
