package content

import (
	"context"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
)

// AddComment attaches a comment by actorID to a published video, or to an
// unpublished one the actor owns.
func (s *Service) AddComment(ctx context.Context, actorID, videoID, content string) (models.Comment, error) {
	const op = "content.AddComment"

	content, err := requireText(op, "content", content)
	if err != nil {
		return models.Comment{}, err
	}
	if err := s.requireAccount(ctx, op, actorID); err != nil {
		return models.Comment{}, err
	}
	video, err := s.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Comment{}, storeError(op, "video", videoID, err)
	}
	if !video.IsPublished && video.OwnerID != actorID {
		return models.Comment{}, apperrors.NotFound(op, "video", videoID)
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		OwnerID:   actorID,
		VideoID:   videoID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Comments.Create(ctx, comment); err != nil {
		return models.Comment{}, storeError(op, "comment", comment.ID, err)
	}
	return comment, nil
}

// UpdateComment replaces the text of a comment owned by actorID.
func (s *Service) UpdateComment(ctx context.Context, actorID, commentID, content string) (models.Comment, error) {
	const op = "content.UpdateComment"

	content, err := requireText(op, "content", content)
	if err != nil {
		return models.Comment{}, err
	}
	comment, err := s.Comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, storeError(op, "comment", commentID, err)
	}
	if comment.OwnerID != actorID {
		return models.Comment{}, apperrors.Forbidden(op, "comment", commentID)
	}

	comment.Content = content
	comment.UpdatedAt = s.now()
	if err := s.Comments.UpdateContent(ctx, commentID, comment.Content, comment.UpdatedAt); err != nil {
		return models.Comment{}, storeError(op, "comment", commentID, err)
	}
	return comment, nil
}

// CreateTweet posts a tweet as actorID.
func (s *Service) CreateTweet(ctx context.Context, actorID, content string) (models.Tweet, error) {
	const op = "content.CreateTweet"

	content, err := requireText(op, "content", content)
	if err != nil {
		return models.Tweet{}, err
	}
	if err := s.requireAccount(ctx, op, actorID); err != nil {
		return models.Tweet{}, err
	}

	now := s.now()
	tweet := models.Tweet{ID: s.newID(), OwnerID: actorID, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.Tweets.Create(ctx, tweet); err != nil {
		return models.Tweet{}, storeError(op, "tweet", tweet.ID, err)
	}
	return tweet, nil
}

// UpdateTweet replaces the text of a tweet owned by actorID.
func (s *Service) UpdateTweet(ctx context.Context, actorID, tweetID, content string) (models.Tweet, error) {
	const op = "content.UpdateTweet"

	content, err := requireText(op, "content", content)
	if err != nil {
		return models.Tweet{}, err
	}
	tweet, err := s.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, storeError(op, "tweet", tweetID, err)
	}
	if tweet.OwnerID != actorID {
		return models.Tweet{}, apperrors.Forbidden(op, "tweet", tweetID)
	}

	tweet.Content = content
	tweet.UpdatedAt = s.now()
	if err := s.Tweets.UpdateContent(ctx, tweetID, tweet.Content, tweet.UpdatedAt); err != nil {
		return models.Tweet{}, storeError(op, "tweet", tweetID, err)
	}
	return tweet, nil
}
