package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.Video{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_file, thumbnail, title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoFile, video.Thumbnail, video.Title, video.Description,
		video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert video")
	}

	return nil
}

// FindByID fetches a video by identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// FindByIDs fetches every video whose id is in ids. Missing ids are skipped.
func (r *PostgresVideoRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, "query videos by ids", `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
}

// List returns videos matching filter, newest first.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter) ([]models.Video, error) {
	if filter.OwnerID != "" {
		return r.query(ctx, "query videos by owner", `
            SELECT `+videoColumns+` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC
        `, filter.OwnerID)
	}
	return r.query(ctx, "query videos", `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC`)
}

func (r *PostgresVideoRepository) query(ctx context.Context, action, query string, args ...any) ([]models.Video, error) {
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

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Update persists the mutable fields of a video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	n, err := execCount(ctx, r.pool, "update video", `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, is_published = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.Thumbnail, video.IsPublished, video.UpdatedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	n, err := execCount(ctx, r.pool, "increment video views", `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video row.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete video", `DELETE FROM videos WHERE id = $1`, id)
	return n > 0, err
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentColumns = `id, owner_id, video_id, content, created_at, updated_at`

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.OwnerID, &c.VideoID, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// Create stores a new comment. A missing video or owner yields ErrNotFound.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, owner_id, video_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.OwnerID, comment.VideoID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert comment")
	}
	return nil
}

// FindByID fetches a comment by identifier.
func (r *PostgresCommentRepository) FindByID(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, nil
}

// ListByVideo returns the comments on a video, newest first.
func (r *PostgresCommentRepository) ListByVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	return r.query(ctx, "query comments by video", `
        SELECT `+commentColumns+` FROM comments WHERE video_id = $1 ORDER BY created_at DESC
    `, videoID)
}

// ListByOwner returns the comments written by an account.
func (r *PostgresCommentRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Comment, error) {
	return r.query(ctx, "query comments by owner", `
        SELECT `+commentColumns+` FROM comments WHERE owner_id = $1 ORDER BY created_at DESC
    `, ownerID)
}

func (r *PostgresCommentRepository) query(ctx context.Context, action, query string, args ...any) ([]models.Comment, error) {
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

	var comments []models.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

// UpdateContent replaces a comment's body.
func (r *PostgresCommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	n, err := execCount(ctx, r.pool, "update comment", `
        UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
    `, id, content, updatedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a comment row.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete comment", `DELETE FROM comments WHERE id = $1`, id)
	return n > 0, err
}

// DeleteByVideo removes every comment attached to a video.
func (r *PostgresCommentRepository) DeleteByVideo(ctx context.Context, videoID string) (int64, error) {
	return execCount(ctx, r.pool, "delete comments by video", `DELETE FROM comments WHERE video_id = $1`, videoID)
}

// DeleteByOwner removes every comment written by an account.
func (r *PostgresCommentRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	return execCount(ctx, r.pool, "delete comments by owner", `DELETE FROM comments WHERE owner_id = $1`, ownerID)
}

// PostgresTweetRepository provides PostgreSQL-backed persistence for tweets.
type PostgresTweetRepository struct {
	pool db.Pool
}

// NewPostgresTweetRepository constructs a tweet repository backed by PostgreSQL.
func NewPostgresTweetRepository(pool db.Pool) *PostgresTweetRepository {
	return &PostgresTweetRepository{pool: pool}
}

// Create stores a new tweet.
func (r *PostgresTweetRepository) Create(ctx context.Context, tweet models.Tweet) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO tweets (id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, tweet.ID, tweet.OwnerID, tweet.Content, tweet.CreatedAt, tweet.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert tweet")
	}
	return nil
}

// FindByID fetches a tweet by identifier.
func (r *PostgresTweetRepository) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var t models.Tweet
	err = conn.QueryRow(ctx, `
        SELECT id, owner_id, content, created_at, updated_at FROM tweets WHERE id = $1
    `, id).Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tweet{}, ErrNotFound
		}
		return models.Tweet{}, fmt.Errorf("select tweet: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

// ListByOwner returns the tweets posted by an account, newest first.
func (r *PostgresTweetRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, content, created_at, updated_at
        FROM tweets
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query tweets by owner: %w", err)
	}
	defer rows.Close()

	var tweets []models.Tweet
	for rows.Next() {
		var t models.Tweet
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tweets: %w", err)
	}
	return tweets, nil
}

// UpdateContent replaces a tweet's body.
func (r *PostgresTweetRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	n, err := execCount(ctx, r.pool, "update tweet", `
        UPDATE tweets SET content = $2, updated_at = $3 WHERE id = $1
    `, id, content, updatedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tweet row.
func (r *PostgresTweetRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete tweet", `DELETE FROM tweets WHERE id = $1`, id)
	return n > 0, err
}

// DeleteByOwner removes every tweet posted by an account.
func (r *PostgresTweetRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	return execCount(ctx, r.pool, "delete tweets by owner", `DELETE FROM tweets WHERE owner_id = $1`, ownerID)
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

const playlistColumns = `id, owner_id, name, description, videos, created_at, updated_at`

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var p models.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Videos, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Playlist{}, err
	}
	if p.Videos == nil {
		p.Videos = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Create stores a new playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videos := playlist.Videos
	if videos == nil {
		videos = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, videos, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, videos, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert playlist")
	}
	return nil
}

// FindByID fetches a playlist by identifier.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	return r.queryOne(ctx, "select playlist", `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id)
}

// ListByOwner returns an account's playlists, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+playlistColumns+` FROM playlists WHERE owner_id = $1 ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists by owner: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	return playlists, nil
}

// Update persists name and description.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	n, err := execCount(ctx, r.pool, "update playlist", `
        UPDATE playlists SET name = $2, description = $3, updated_at = $4 WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.UpdatedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVideo appends videoID to the playlist unless it is already present.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error) {
	return r.queryOne(ctx, "add video to playlist", `
        UPDATE playlists
        SET videos = CASE WHEN $2::TEXT = ANY(videos) THEN videos ELSE array_append(videos, $2::TEXT) END,
            updated_at = $3
        WHERE id = $1 AND EXISTS (SELECT 1 FROM videos WHERE id = $2::TEXT)
        RETURNING `+playlistColumns, playlistID, videoID, updatedAt)
}

// RemoveVideo pulls videoID from the playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string, updatedAt time.Time) (models.Playlist, error) {
	return r.queryOne(ctx, "remove video from playlist", `
        UPDATE playlists
        SET videos = array_remove(videos, $2::TEXT), updated_at = $3
        WHERE id = $1
        RETURNING `+playlistColumns, playlistID, videoID, updatedAt)
}

func (r *PostgresPlaylistRepository) queryOne(ctx context.Context, action, query string, args ...any) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("%s: %w", action, err)
	}
	return playlist, nil
}

// RemoveVideoEverywhere pulls videoID from every playlist that references it.
func (r *PostgresPlaylistRepository) RemoveVideoEverywhere(ctx context.Context, videoID string) (int64, error) {
	return execCount(ctx, r.pool, "remove video from playlists", `
        UPDATE playlists
        SET videos = array_remove(videos, $1::TEXT)
        WHERE $1::TEXT = ANY(videos)
    `, videoID)
}

// Delete removes a playlist row.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete playlist", `DELETE FROM playlists WHERE id = $1`, id)
	return n > 0, err
}

// DeleteByOwner removes every playlist owned by an account.
func (r *PostgresPlaylistRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	return execCount(ctx, r.pool, "delete playlists by owner", `DELETE FROM playlists WHERE owner_id = $1`, ownerID)
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ TweetRepository = (*PostgresTweetRepository)(nil)
var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
