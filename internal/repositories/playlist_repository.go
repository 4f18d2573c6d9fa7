package repositories

import (
	"context"
	"time"

	"github.com/vidtube/backend/internal/models"
)

// PlaylistRepository exposes data access for playlists. A playlist's video
// list behaves as an ordered set.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	// Update persists name, description and updated_at.
	Update(ctx context.Context, playlist models.Playlist) error
	// AddVideo appends videoID unless already present and returns the stored playlist.
	AddVideo(ctx context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error)
	// RemoveVideoEverywhere pulls videoID from every playlist that holds it.
	RemoveVideoEverywhere(ctx context.Context, videoID string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
