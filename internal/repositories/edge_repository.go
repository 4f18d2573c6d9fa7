package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// LikeRepository exposes data access for likes. At most one like exists per
// (likedBy, target kind, target id); Create returns ErrConflict otherwise.
type LikeRepository interface {
	Find(ctx context.Context, likedBy string, target models.LikeTarget) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByTarget(ctx context.Context, target models.LikeTarget) (int64, error)
	DeleteByTargets(ctx context.Context, kind models.LikeKind, ids []string) (int64, error)
	DeleteByLiker(ctx context.Context, likedBy string) (int64, error)
	CountByTargets(ctx context.Context, kind models.LikeKind, ids []string) (int64, error)
	ListByLiker(ctx context.Context, likedBy string, kind models.LikeKind) ([]models.Like, error)
}

// SubscriptionRepository exposes data access for subscriptions. At most one
// subscription exists per (subscriber, channel); Create returns ErrConflict otherwise.
type SubscriptionRepository interface {
	Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Create(ctx context.Context, subscription models.Subscription) error
	Delete(ctx context.Context, id string) (bool, error)
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
	ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
	// DeleteByAccount removes subscriptions where the account is either side.
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
}
