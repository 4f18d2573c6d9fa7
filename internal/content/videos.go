package content

import (
	"context"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// PublishVideoInput describes a new video. Both paths are local files.
type PublishVideoInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// UpdateVideoInput carries the fields to change. Nil fields are left alone;
// a non-empty ThumbnailPath replaces the thumbnail.
type UpdateVideoInput struct {
	Title         *string
	Description   *string
	ThumbnailPath string
}

// PublishVideo uploads the media for a new video owned by actorID and records
// it. Uploaded blobs are removed again if any later step fails.
func (s *Service) PublishVideo(ctx context.Context, actorID string, in PublishVideoInput) (models.Video, error) {
	const op = "content.PublishVideo"

	title, err := requireText(op, "title", in.Title)
	if err != nil {
		return models.Video{}, err
	}
	if in.VideoPath == "" || in.ThumbnailPath == "" {
		return models.Video{}, apperrors.Invalid(op, "video file and thumbnail are required")
	}
	if err := s.requireAccount(ctx, op, actorID); err != nil {
		return models.Video{}, err
	}

	media, err := s.upload(ctx, op, in.VideoPath)
	if err != nil {
		return models.Video{}, err
	}
	thumbnail, err := s.upload(ctx, op, in.ThumbnailPath)
	if err != nil {
		s.discard(ctx, op, media.Ref)
		return models.Video{}, err
	}

	now := s.now()
	video := models.Video{
		ID:          s.newID(),
		OwnerID:     actorID,
		VideoFile:   media.Ref,
		Thumbnail:   thumbnail.Ref,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Duration:    media.Duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Videos.Create(ctx, video); err != nil {
		s.discard(ctx, op, media.Ref, thumbnail.Ref)
		return models.Video{}, storeError(op, "video", video.ID, err)
	}

	logging.FromContext(ctx).Info("video published", "videoId", video.ID, "ownerId", actorID, "duration", video.Duration)
	return video, nil
}

func (s *Service) ownedVideo(ctx context.Context, op, actorID, videoID string) (models.Video, error) {
	video, err := s.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(op, "video", videoID, err)
	}
	if video.OwnerID != actorID {
		return models.Video{}, apperrors.Forbidden(op, "video", videoID)
	}
	return video, nil
}

// UpdateVideo edits a video owned by actorID. A replaced thumbnail is removed
// from the blob store once the row points at the new one.
func (s *Service) UpdateVideo(ctx context.Context, actorID, videoID string, in UpdateVideoInput) (models.Video, error) {
	const op = "content.UpdateVideo"

	video, err := s.ownedVideo(ctx, op, actorID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if in.Title != nil {
		title, err := requireText(op, "title", *in.Title)
		if err != nil {
			return models.Video{}, err
		}
		video.Title = title
	}
	if in.Description != nil {
		video.Description = strings.TrimSpace(*in.Description)
	}

	previous := ""
	if in.ThumbnailPath != "" {
		asset, err := s.upload(ctx, op, in.ThumbnailPath)
		if err != nil {
			return models.Video{}, err
		}
		previous = video.Thumbnail
		video.Thumbnail = asset.Ref
	}

	video.UpdatedAt = s.now()
	if err := s.Videos.Update(ctx, video); err != nil {
		if previous != "" {
			s.discard(ctx, op, video.Thumbnail)
		}
		return models.Video{}, storeError(op, "video", videoID, err)
	}

	s.release(ctx, op, previous)
	return video, nil
}

// TogglePublishStatus flips whether a video owned by actorID is listed publicly.
func (s *Service) TogglePublishStatus(ctx context.Context, actorID, videoID string) (models.Video, error) {
	const op = "content.TogglePublishStatus"

	video, err := s.ownedVideo(ctx, op, actorID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = s.now()
	if err := s.Videos.Update(ctx, video); err != nil {
		return models.Video{}, storeError(op, "video", videoID, err)
	}

	logging.FromContext(ctx).Info("video publish status toggled", "videoId", videoID, "isPublished", video.IsPublished)
	return video, nil
}

// RecordView counts a view of videoID and, for a known viewer, moves the
// video to the front of the viewer's watch history. Unpublished videos can
// only be viewed by their owner.
func (s *Service) RecordView(ctx context.Context, viewerID, videoID string) (models.Video, error) {
	const op = "content.RecordView"

	video, err := s.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(op, "video", videoID, err)
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return models.Video{}, apperrors.NotFound(op, "video", videoID)
	}

	if err := s.Videos.IncrementViews(ctx, videoID); err != nil {
		return models.Video{}, storeError(op, "video", videoID, err)
	}
	video.Views++

	if viewerID != "" {
		if err := s.Accounts.RecordWatch(ctx, viewerID, videoID); err != nil {
			return models.Video{}, storeError(op, "account", viewerID, err)
		}
	}
	return video, nil
}
