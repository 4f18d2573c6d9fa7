// Package cascade removes root entities together with every edge and entity
// that refers to them. Each deletion runs a fixed, ordered pipeline of named
// steps. A failing step aborts the pipeline without rolling back earlier
// steps; the returned Fatal error names the failed and last completed steps.
// Blob cleanup runs after the pipeline and never fails the deletion.
package cascade

import (
	"context"
	"errors"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/blobs"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// Step names, in pipeline order.
const (
	StepDeleteCommentLikes     = "deleteCommentLikes"
	StepDeleteComments         = "deleteComments"
	StepDeleteVideoLikes       = "deleteVideoLikes"
	StepPullFromPlaylists      = "pullFromPlaylists"
	StepPullFromWatchHistories = "pullFromWatchHistories"
	StepDeleteVideo            = "deleteVideo"

	StepDeleteLikes    = "deleteLikes"
	StepDeleteComment  = "deleteComment"
	StepDeleteTweet    = "deleteTweet"
	StepDeletePlaylist = "deletePlaylist"

	StepDeleteOwnedCommentLikes = "deleteOwnedCommentLikes"
	StepDeleteOwnedComments     = "deleteOwnedComments"
	StepDeleteOwnedTweetLikes   = "deleteOwnedTweetLikes"
	StepDeleteOwnedTweets       = "deleteOwnedTweets"
	StepDeletePlaylists         = "deletePlaylists"
	StepDeleteLikesGiven        = "deleteLikesGiven"
	StepDeleteSubscriptions     = "deleteSubscriptions"
	StepDeleteAccount           = "deleteAccount"
)

// Recorder observes cascade outcomes.
type Recorder interface {
	CascadeCompleted(op string, elapsed time.Duration)
	CascadeFailed(op, step string, elapsed time.Duration)
	BlobDeleteFailed(source string)
}

// Deleter runs cascading deletions.
type Deleter struct {
	Accounts      repositories.AccountRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Tweets        repositories.TweetRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
	Playlists     repositories.PlaylistRepository
	// Blobs removes media after the rows are gone. It is typically a
	// *blobs.Reaper so the caller does not wait on the object store.
	Blobs   blobs.Remover
	Metrics Recorder
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// DeleteVideo removes a video owned by actorID, its comments and the likes on
// them, its likes, its playlist and watch history entries, and finally its
// video and thumbnail blobs.
func (d *Deleter) DeleteVideo(ctx context.Context, actorID, videoID string) error {
	const op = "cascade.DeleteVideo"

	video, err := d.Videos.FindByID(ctx, videoID)
	if err != nil {
		return preconditionError(op, "video", videoID, err)
	}
	if video.OwnerID != actorID {
		return apperrors.Forbidden(op, "video", videoID)
	}

	if err := d.run(ctx, op, "video", videoID, d.videoSteps("", video)); err != nil {
		return err
	}
	d.removeBlobs(ctx, op, video.VideoFile, video.Thumbnail)
	return nil
}

func (d *Deleter) videoSteps(prefix string, video models.Video) []step {
	id := video.ID
	return []step{
		{prefix + StepDeleteCommentLikes, func(ctx context.Context) error {
			comments, err := d.Comments.ListByVideo(ctx, id)
			if err != nil {
				return err
			}
			_, err = d.Likes.DeleteByTargets(ctx, models.LikeKindComment, commentIDs(comments))
			return err
		}},
		{prefix + StepDeleteComments, func(ctx context.Context) error {
			_, err := d.Comments.DeleteByVideo(ctx, id)
			return err
		}},
		{prefix + StepDeleteVideoLikes, func(ctx context.Context) error {
			_, err := d.Likes.DeleteByTarget(ctx, models.LikeTarget{Kind: models.LikeKindVideo, ID: id})
			return err
		}},
		{prefix + StepPullFromPlaylists, func(ctx context.Context) error {
			_, err := d.Playlists.RemoveVideoEverywhere(ctx, id)
			return err
		}},
		{prefix + StepPullFromWatchHistories, func(ctx context.Context) error {
			_, err := d.Accounts.RemoveFromWatchHistories(ctx, id)
			return err
		}},
		{prefix + StepDeleteVideo, func(ctx context.Context) error {
			_, err := d.Videos.Delete(ctx, id)
			return err
		}},
	}
}

// DeleteComment removes a comment owned by actorID and the likes on it.
func (d *Deleter) DeleteComment(ctx context.Context, actorID, commentID string) error {
	const op = "cascade.DeleteComment"

	comment, err := d.Comments.FindByID(ctx, commentID)
	if err != nil {
		return preconditionError(op, "comment", commentID, err)
	}
	if comment.OwnerID != actorID {
		return apperrors.Forbidden(op, "comment", commentID)
	}

	return d.run(ctx, op, "comment", commentID, []step{
		{StepDeleteLikes, func(ctx context.Context) error {
			_, err := d.Likes.DeleteByTarget(ctx, models.LikeTarget{Kind: models.LikeKindComment, ID: commentID})
			return err
		}},
		{StepDeleteComment, func(ctx context.Context) error {
			_, err := d.Comments.Delete(ctx, commentID)
			return err
		}},
	})
}

// DeleteTweet removes a tweet owned by actorID and the likes on it.
func (d *Deleter) DeleteTweet(ctx context.Context, actorID, tweetID string) error {
	const op = "cascade.DeleteTweet"

	tweet, err := d.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		return preconditionError(op, "tweet", tweetID, err)
	}
	if tweet.OwnerID != actorID {
		return apperrors.Forbidden(op, "tweet", tweetID)
	}

	return d.run(ctx, op, "tweet", tweetID, []step{
		{StepDeleteLikes, func(ctx context.Context) error {
			_, err := d.Likes.DeleteByTarget(ctx, models.LikeTarget{Kind: models.LikeKindTweet, ID: tweetID})
			return err
		}},
		{StepDeleteTweet, func(ctx context.Context) error {
			_, err := d.Tweets.Delete(ctx, tweetID)
			return err
		}},
	})
}

// DeletePlaylist removes a playlist owned by actorID. Nothing refers to
// playlists, so the pipeline is a single step.
func (d *Deleter) DeletePlaylist(ctx context.Context, actorID, playlistID string) error {
	const op = "cascade.DeletePlaylist"

	playlist, err := d.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return preconditionError(op, "playlist", playlistID, err)
	}
	if playlist.OwnerID != actorID {
		return apperrors.Forbidden(op, "playlist", playlistID)
	}

	return d.run(ctx, op, "playlist", playlistID, []step{
		{StepDeletePlaylist, func(ctx context.Context) error {
			_, err := d.Playlists.Delete(ctx, playlistID)
			return err
		}},
	})
}

// DeleteAccount removes an account and everything it owns or touches. Only the
// account itself may request it.
func (d *Deleter) DeleteAccount(ctx context.Context, actorID, accountID string) error {
	const op = "cascade.DeleteAccount"

	account, err := d.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return preconditionError(op, "account", accountID, err)
	}
	if account.ID != actorID {
		return apperrors.Forbidden(op, "account", accountID)
	}

	videos, err := d.Videos.List(ctx, repositories.VideoFilter{OwnerID: accountID})
	if err != nil {
		return preconditionError(op, "account", accountID, err)
	}

	var (
		steps []step
		refs  []string
	)
	for _, video := range videos {
		steps = append(steps, d.videoSteps("video "+video.ID+": ", video)...)
		refs = append(refs, video.VideoFile, video.Thumbnail)
	}

	steps = append(steps,
		step{StepDeleteOwnedCommentLikes, func(ctx context.Context) error {
			comments, err := d.Comments.ListByOwner(ctx, accountID)
			if err != nil {
				return err
			}
			_, err = d.Likes.DeleteByTargets(ctx, models.LikeKindComment, commentIDs(comments))
			return err
		}},
		step{StepDeleteOwnedComments, func(ctx context.Context) error {
			_, err := d.Comments.DeleteByOwner(ctx, accountID)
			return err
		}},
		step{StepDeleteOwnedTweetLikes, func(ctx context.Context) error {
			tweets, err := d.Tweets.ListByOwner(ctx, accountID)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(tweets))
			for _, t := range tweets {
				ids = append(ids, t.ID)
			}
			_, err = d.Likes.DeleteByTargets(ctx, models.LikeKindTweet, ids)
			return err
		}},
		step{StepDeleteOwnedTweets, func(ctx context.Context) error {
			_, err := d.Tweets.DeleteByOwner(ctx, accountID)
			return err
		}},
		step{StepDeletePlaylists, func(ctx context.Context) error {
			_, err := d.Playlists.DeleteByOwner(ctx, accountID)
			return err
		}},
		step{StepDeleteLikesGiven, func(ctx context.Context) error {
			_, err := d.Likes.DeleteByLiker(ctx, accountID)
			return err
		}},
		step{StepDeleteSubscriptions, func(ctx context.Context) error {
			_, err := d.Subscriptions.DeleteByAccount(ctx, accountID)
			return err
		}},
		step{StepDeleteAccount, func(ctx context.Context) error {
			_, err := d.Accounts.Delete(ctx, accountID)
			return err
		}},
	)

	if err := d.run(ctx, op, "account", accountID, steps); err != nil {
		return err
	}

	d.removeBlobs(ctx, op, append(refs, account.Avatar, account.CoverImage)...)
	return nil
}

func (d *Deleter) run(ctx context.Context, op, entity, id string, steps []step) error {
	ctx, span := logging.StartSpan(ctx, op)
	defer span.End()

	logger := logging.FromContext(ctx)
	start := time.Now()

	completed := ""
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			logger.Error("cascade aborted",
				"op", op, "entity", entity, "entityId", id,
				"step", s.name, "lastCompleted", completed, "error", err)
			if d.Metrics != nil {
				d.Metrics.CascadeFailed(op, s.name, time.Since(start))
			}
			span.Fail(err)
			return &apperrors.Error{
				Kind:      apperrors.KindFatal,
				Op:        op,
				Entity:    entity,
				ID:        id,
				Step:      s.name,
				Completed: completed,
				Err:       err,
			}
		}
		completed = s.name
	}

	if d.Metrics != nil {
		d.Metrics.CascadeCompleted(op, time.Since(start))
	}
	logger.Info("cascade completed", "op", op, "entityId", id, "steps", len(steps))
	return nil
}

// removeBlobs deletes refs best-effort. The rows are already gone, so any
// failure only leaks storage.
func (d *Deleter) removeBlobs(ctx context.Context, op string, refs ...string) {
	if d.Blobs == nil {
		return
	}
	logger := logging.FromContext(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := d.Blobs.Delete(ctx, ref); err != nil {
			logger.Warn("blob cleanup failed", "op", op, "ref", ref, "error", err)
			if d.Metrics != nil {
				d.Metrics.BlobDeleteFailed("cascade")
			}
		}
	}
}

func preconditionError(op, entity, id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(op, entity, id)
	}
	return &apperrors.Error{Kind: apperrors.KindStorageFailed, Op: op, Entity: entity, ID: id, Err: err}
}

func commentIDs(comments []models.Comment) []string {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}
