package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

const likeColumns = `id, liked_by, target_kind, target_id, created_at, updated_at`

func scanLike(row pgx.Row) (models.Like, error) {
	var (
		l    models.Like
		kind string
	)
	if err := row.Scan(&l.ID, &l.LikedBy, &kind, &l.Target.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return models.Like{}, err
	}
	l.Target.Kind = models.LikeKind(kind)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}

// Find fetches the like an account placed on target.
func (r *PostgresLikeRepository) Find(ctx context.Context, likedBy string, target models.LikeTarget) (models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Like{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	like, err := scanLike(conn.QueryRow(ctx, `
        SELECT `+likeColumns+`
        FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
    `, likedBy, string(target.Kind), target.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrNotFound
		}
		return models.Like{}, fmt.Errorf("select like: %w", err)
	}
	return like, nil
}

var likeTargetTables = map[models.LikeKind]string{
	models.LikeKindVideo:   "videos",
	models.LikeKindComment: "comments",
	models.LikeKindTweet:   "tweets",
}

// Create inserts a like. A duplicate (likedBy, target) yields ErrConflict and
// a missing target yields ErrNotFound. The target row is share-locked for the
// insert so a concurrent delete cannot slip between the check and the write.
func (r *PostgresLikeRepository) Create(ctx context.Context, like models.Like) error {
	table, ok := likeTargetTables[like.Target.Kind]
	if !ok {
		return ErrConstraint
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var found, inserted bool
	err = conn.QueryRow(ctx, `
        WITH target AS (
            SELECT 1 FROM `+table+` WHERE id = $4::TEXT FOR SHARE
        ), inserted AS (
            INSERT INTO likes (`+likeColumns+`)
            SELECT $1::TEXT, $2::TEXT, $3::TEXT, $4::TEXT, $5::TIMESTAMPTZ, $6::TIMESTAMPTZ
            FROM target
            ON CONFLICT (liked_by, target_kind, target_id) DO NOTHING
            RETURNING 1
        )
        SELECT EXISTS (SELECT 1 FROM target), EXISTS (SELECT 1 FROM inserted)
    `, like.ID, like.LikedBy, string(like.Target.Kind), like.Target.ID, like.CreatedAt, like.UpdatedAt).Scan(&found, &inserted)
	if err != nil {
		return classifyWriteError(err, "insert like")
	}
	switch {
	case !found:
		return ErrNotFound
	case !inserted:
		return ErrConflict
	}
	return nil
}

// Delete removes a like by id.
func (r *PostgresLikeRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete like", `DELETE FROM likes WHERE id = $1`, id)
	return n > 0, err
}

// DeleteByTarget removes every like on target.
func (r *PostgresLikeRepository) DeleteByTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	return execCount(ctx, r.pool, "delete likes by target", `
        DELETE FROM likes WHERE target_kind = $1 AND target_id = $2
    `, string(target.Kind), target.ID)
}

// DeleteByTargets removes every like on any of the given targets of one kind.
func (r *PostgresLikeRepository) DeleteByTargets(ctx context.Context, kind models.LikeKind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return execCount(ctx, r.pool, "delete likes by targets", `
        DELETE FROM likes WHERE target_kind = $1 AND target_id = ANY($2)
    `, string(kind), ids)
}

// DeleteByLiker removes every like placed by an account.
func (r *PostgresLikeRepository) DeleteByLiker(ctx context.Context, likedBy string) (int64, error) {
	return execCount(ctx, r.pool, "delete likes by liker", `DELETE FROM likes WHERE liked_by = $1`, likedBy)
}

// CountByTargets counts likes on any of the given targets of one kind.
func (r *PostgresLikeRepository) CountByTargets(ctx context.Context, kind models.LikeKind, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return countRows(ctx, r.pool, "count likes by targets", `
        SELECT count(*) FROM likes WHERE target_kind = $1 AND target_id = ANY($2)
    `, string(kind), ids)
}

// ListByLiker returns the likes of one kind placed by an account, newest first.
func (r *PostgresLikeRepository) ListByLiker(ctx context.Context, likedBy string, kind models.LikeKind) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+likeColumns+`
        FROM likes
        WHERE liked_by = $1 AND target_kind = $2
        ORDER BY created_at DESC
    `, likedBy, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query likes by liker: %w", err)
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		like, err := scanLike(rows)
		if err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return likes, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

const subscriptionColumns = `id, subscriber_id, channel_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (models.Subscription, error) {
	var s models.Subscription
	if err := row.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return models.Subscription{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// Find fetches the subscription from subscriberID to channelID.
func (r *PostgresSubscriptionRepository) Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sub, err := scanSubscription(conn.QueryRow(ctx, `
        SELECT `+subscriptionColumns+`
        FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrNotFound
		}
		return models.Subscription{}, fmt.Errorf("select subscription: %w", err)
	}
	return sub, nil
}

// Create inserts a subscription. A duplicate pair yields ErrConflict and a
// self subscription ErrConstraint.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, subscription models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, subscription.ID, subscription.SubscriberID, subscription.ChannelID, subscription.CreatedAt, subscription.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert subscription")
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// Delete removes a subscription by id.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete subscription", `DELETE FROM subscriptions WHERE id = $1`, id)
	return n > 0, err
}

// CountByChannel counts a channel's subscribers.
func (r *PostgresSubscriptionRepository) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	return countRows(ctx, r.pool, "count subscribers", `SELECT count(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountBySubscriber counts the channels an account subscribes to.
func (r *PostgresSubscriptionRepository) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	return countRows(ctx, r.pool, "count subscriptions", `SELECT count(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

// ListByChannel returns a channel's subscriptions, newest first.
func (r *PostgresSubscriptionRepository) ListByChannel(ctx context.Context, channelID string) ([]models.Subscription, error) {
	return r.query(ctx, "query subscriptions by channel", `
        SELECT `+subscriptionColumns+` FROM subscriptions WHERE channel_id = $1 ORDER BY created_at DESC
    `, channelID)
}

// ListBySubscriber returns an account's subscriptions, newest first.
func (r *PostgresSubscriptionRepository) ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	return r.query(ctx, "query subscriptions by subscriber", `
        SELECT `+subscriptionColumns+` FROM subscriptions WHERE subscriber_id = $1 ORDER BY created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) query(ctx context.Context, action, query string, args ...any) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteByAccount removes subscriptions in both directions for an account.
func (r *PostgresSubscriptionRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	return execCount(ctx, r.pool, "delete subscriptions by account", `
        DELETE FROM subscriptions WHERE subscriber_id = $1 OR channel_id = $1
    `, accountID)
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
