package content

import (
	"context"
	"slices"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
)

// PlaylistInput names a playlist. On update, nil fields are left alone.
type PlaylistInput struct {
	Name        *string
	Description *string
}

// CreatePlaylist creates an empty playlist owned by actorID.
func (s *Service) CreatePlaylist(ctx context.Context, actorID, name, description string) (models.Playlist, error) {
	const op = "content.CreatePlaylist"

	name, err := requireText(op, "name", name)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := s.requireAccount(ctx, op, actorID); err != nil {
		return models.Playlist{}, err
	}

	now := s.now()
	playlist := models.Playlist{
		ID:          s.newID(),
		OwnerID:     actorID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Videos:      []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Playlists.Create(ctx, playlist); err != nil {
		return models.Playlist{}, storeError(op, "playlist", playlist.ID, err)
	}
	return playlist, nil
}

func (s *Service) ownedPlaylist(ctx context.Context, op, actorID, playlistID string) (models.Playlist, error) {
	playlist, err := s.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, storeError(op, "playlist", playlistID, err)
	}
	if playlist.OwnerID != actorID {
		return models.Playlist{}, apperrors.Forbidden(op, "playlist", playlistID)
	}
	return playlist, nil
}

// UpdatePlaylist renames or redescribes a playlist owned by actorID.
func (s *Service) UpdatePlaylist(ctx context.Context, actorID, playlistID string, in PlaylistInput) (models.Playlist, error) {
	const op = "content.UpdatePlaylist"

	playlist, err := s.ownedPlaylist(ctx, op, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	if in.Name != nil {
		name, err := requireText(op, "name", *in.Name)
		if err != nil {
			return models.Playlist{}, err
		}
		playlist.Name = name
	}
	if in.Description != nil {
		playlist.Description = strings.TrimSpace(*in.Description)
	}

	playlist.UpdatedAt = s.now()
	if err := s.Playlists.Update(ctx, playlist); err != nil {
		return models.Playlist{}, storeError(op, "playlist", playlistID, err)
	}
	return playlist, nil
}

// AddVideoToPlaylist appends videoID to a playlist owned by actorID. Adding a
// video that is already present leaves the playlist unchanged. Another
// owner's unpublished video is reported as missing.
func (s *Service) AddVideoToPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	const op = "content.AddVideoToPlaylist"

	if _, err := s.ownedPlaylist(ctx, op, actorID, playlistID); err != nil {
		return models.Playlist{}, err
	}
	video, err := s.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Playlist{}, storeError(op, "video", videoID, err)
	}
	if !video.IsPublished && video.OwnerID != actorID {
		return models.Playlist{}, apperrors.NotFound(op, "video", videoID)
	}

	playlist, err := s.Playlists.AddVideo(ctx, playlistID, videoID, s.now())
	if err != nil {
		return models.Playlist{}, storeError(op, "playlist", playlistID, err)
	}
	return playlist, nil
}

// RemoveVideoFromPlaylist drops videoID from a playlist owned by actorID.
func (s *Service) RemoveVideoFromPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error) {
	const op = "content.RemoveVideoFromPlaylist"

	playlist, err := s.ownedPlaylist(ctx, op, actorID, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	if !slices.Contains(playlist.Videos, videoID) {
		return models.Playlist{}, apperrors.NotFound(op, "video", videoID)
	}

	playlist, err = s.Playlists.RemoveVideo(ctx, playlistID, videoID, s.now())
	if err != nil {
		return models.Playlist{}, storeError(op, "playlist", playlistID, err)
	}
	return playlist, nil
}
