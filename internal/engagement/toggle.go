// Package engagement flips like and subscription edges between accounts and
// content. A toggle inserts the edge when it is absent and removes it when it
// is present; the store's unique constraints guarantee at most one edge per
// actor and target even when toggles race.
package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// Kind names the edge being toggled.
type Kind string

const (
	KindVideoLike    Kind = "video"
	KindCommentLike  Kind = "comment"
	KindTweetLike    Kind = "tweet"
	KindSubscription Kind = "subscription"
)

// Target identifies the far end of an edge: a video, comment or tweet for
// likes and a channel account for subscriptions.
type Target struct {
	Kind Kind
	ID   string
}

// State is the edge's existence after a toggle.
type State string

const (
	StateAdded   State = "added"
	StateRemoved State = "removed"
)

// Result reports the outcome of a toggle. Exactly one of Like and
// Subscription is set.
type Result struct {
	State        State
	Like         *models.Like
	Subscription *models.Subscription
}

// Recorder counts toggle outcomes.
type Recorder interface {
	ToggleRecorded(kind, state string)
}

// Service toggles engagement edges.
type Service struct {
	Accounts      repositories.AccountRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Tweets        repositories.TweetRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
	Metrics       Recorder
	NowFunc       func() time.Time
}

// ToggleVideoLike flips actorID's like on a video.
func (s *Service) ToggleVideoLike(ctx context.Context, actorID, videoID string) (Result, error) {
	return s.Toggle(ctx, actorID, Target{Kind: KindVideoLike, ID: videoID})
}

// ToggleCommentLike flips actorID's like on a comment.
func (s *Service) ToggleCommentLike(ctx context.Context, actorID, commentID string) (Result, error) {
	return s.Toggle(ctx, actorID, Target{Kind: KindCommentLike, ID: commentID})
}

// ToggleTweetLike flips actorID's like on a tweet.
func (s *Service) ToggleTweetLike(ctx context.Context, actorID, tweetID string) (Result, error) {
	return s.Toggle(ctx, actorID, Target{Kind: KindTweetLike, ID: tweetID})
}

// ToggleSubscription flips actorID's subscription to a channel.
func (s *Service) ToggleSubscription(ctx context.Context, actorID, channelID string) (Result, error) {
	return s.Toggle(ctx, actorID, Target{Kind: KindSubscription, ID: channelID})
}

// Toggle flips the edge between actorID and target. A self subscription is
// rejected before the store is consulted.
func (s *Service) Toggle(ctx context.Context, actorID string, target Target) (Result, error) {
	const op = "engagement.Toggle"

	if target.Kind == KindSubscription && actorID == target.ID {
		return Result{}, &apperrors.Error{Kind: apperrors.KindInvalidRelationship, Op: op, Entity: "account", ID: actorID, Message: "cannot subscribe to own channel"}
	}
	if actorID == "" || target.ID == "" {
		return Result{}, apperrors.Invalid(op, "actor and target are required")
	}

	if _, err := s.Accounts.FindByID(ctx, actorID); err != nil {
		return Result{}, lookupError(op, "account", actorID, err)
	}
	if err := s.targetExists(ctx, target); err != nil {
		return Result{}, lookupError(op, string(target.Kind), target.ID, err)
	}

	var (
		result Result
		err    error
	)
	if target.Kind == KindSubscription {
		result, err = s.toggleSubscription(ctx, op, actorID, target.ID)
	} else {
		result, err = s.toggleLike(ctx, op, actorID, models.LikeTarget{Kind: models.LikeKind(target.Kind), ID: target.ID})
	}
	if err != nil {
		return Result{}, err
	}

	if s.Metrics != nil {
		s.Metrics.ToggleRecorded(string(target.Kind), string(result.State))
	}
	logging.FromContext(ctx).Info("engagement toggled",
		"kind", string(target.Kind), "actorId", actorID, "targetId", target.ID, "state", string(result.State))

	return result, nil
}

func (s *Service) targetExists(ctx context.Context, target Target) error {
	var err error
	switch target.Kind {
	case KindVideoLike:
		_, err = s.Videos.FindByID(ctx, target.ID)
	case KindCommentLike:
		_, err = s.Comments.FindByID(ctx, target.ID)
	case KindTweetLike:
		_, err = s.Tweets.FindByID(ctx, target.ID)
	case KindSubscription:
		_, err = s.Accounts.FindByID(ctx, target.ID)
	default:
		return errUnknownKind
	}
	return err
}

var errUnknownKind = errors.New("unknown edge kind")

func lookupError(op, entity, id string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound(op, entity, id)
	case errors.Is(err, errUnknownKind):
		return apperrors.Invalid(op, "unknown edge kind "+entity)
	default:
		return &apperrors.Error{Kind: apperrors.KindStorageFailed, Op: op, Entity: entity, ID: id, Err: err}
	}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) toggleLike(ctx context.Context, op, actorID string, target models.LikeTarget) (Result, error) {
	existing, err := s.Likes.Find(ctx, actorID, target)
	switch {
	case err == nil:
		if _, err := s.Likes.Delete(ctx, existing.ID); err != nil {
			return Result{}, apperrors.Storage(op, err)
		}
		return Result{State: StateRemoved, Like: &existing}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return Result{}, apperrors.Storage(op, err)
	}

	now := s.now()
	like := models.Like{ID: uuid.NewString(), LikedBy: actorID, Target: target, CreatedAt: now, UpdatedAt: now}
	err = s.Likes.Create(ctx, like)
	switch {
	case err == nil:
		return Result{State: StateAdded, Like: &like}, nil
	case errors.Is(err, repositories.ErrConflict):
		// A concurrent toggle inserted the same edge first.
		winner, ferr := s.Likes.Find(ctx, actorID, target)
		if ferr == nil {
			like = winner
		} else if !errors.Is(ferr, repositories.ErrNotFound) {
			return Result{}, apperrors.Storage(op, ferr)
		}
		return Result{State: StateAdded, Like: &like}, nil
	case errors.Is(err, repositories.ErrNotFound):
		// The target was removed after the lookup above.
		return Result{}, apperrors.NotFound(op, string(target.Kind), target.ID)
	default:
		return Result{}, apperrors.Storage(op, err)
	}
}

func (s *Service) toggleSubscription(ctx context.Context, op, actorID, channelID string) (Result, error) {
	existing, err := s.Subscriptions.Find(ctx, actorID, channelID)
	switch {
	case err == nil:
		if _, err := s.Subscriptions.Delete(ctx, existing.ID); err != nil {
			return Result{}, apperrors.Storage(op, err)
		}
		return Result{State: StateRemoved, Subscription: &existing}, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return Result{}, apperrors.Storage(op, err)
	}

	now := s.now()
	sub := models.Subscription{ID: uuid.NewString(), SubscriberID: actorID, ChannelID: channelID, CreatedAt: now, UpdatedAt: now}
	err = s.Subscriptions.Create(ctx, sub)
	switch {
	case err == nil:
		return Result{State: StateAdded, Subscription: &sub}, nil
	case errors.Is(err, repositories.ErrConflict):
		winner, ferr := s.Subscriptions.Find(ctx, actorID, channelID)
		if ferr == nil {
			sub = winner
		} else if !errors.Is(ferr, repositories.ErrNotFound) {
			return Result{}, apperrors.Storage(op, ferr)
		}
		return Result{State: StateAdded, Subscription: &sub}, nil
	case errors.Is(err, repositories.ErrConstraint):
		return Result{}, &apperrors.Error{Kind: apperrors.KindInvalidRelationship, Op: op, Entity: "account", ID: actorID, Err: err}
	case errors.Is(err, repositories.ErrNotFound):
		return Result{}, apperrors.NotFound(op, "account", channelID)
	default:
		return Result{}, apperrors.Storage(op, err)
	}
}
