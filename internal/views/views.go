// Package views builds read-only aggregates over the entity store: channel
// statistics, profiles, watch history and the paginated listings. Joins are
// done in process over per-collection reads; nothing here mutates state.
package views

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

// Sort fields accepted by the listings, in addition to pagination.FieldCreatedAt.
const (
	FieldUpdatedAt = "updatedAt"
	FieldTitle     = "title"
	FieldViews     = "views"
	FieldDuration  = "duration"
	// FieldPosition orders playlist entries as they were added.
	FieldPosition = "position"
)

// VideoSortFields lists the fields a video listing may sort by.
var VideoSortFields = []string{pagination.FieldCreatedAt, FieldUpdatedAt, FieldTitle, FieldViews, FieldDuration}

// PlaylistSortFields lists the fields playlist contents may sort by.
var PlaylistSortFields = append([]string{FieldPosition}, VideoSortFields...)

// CommentSortFields lists the fields a comment listing may sort by.
var CommentSortFields = []string{pagination.FieldCreatedAt, FieldUpdatedAt}

// OwnerSummary is the projection of an account embedded in other views.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// VideoView is a video joined with its owner.
type VideoView struct {
	ID          string       `json:"id"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublished bool         `json:"isPublished"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Owner       OwnerSummary `json:"owner"`
}

// CommentView is a comment joined with its author.
type CommentView struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"videoId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     OwnerSummary `json:"owner"`
}

// TweetView is a tweet joined with its author.
type TweetView struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     OwnerSummary `json:"owner"`
}

// ListOptions carries the paging, sorting and text filter of a listing.
type ListOptions struct {
	Page  pagination.Params
	Sort  pagination.Sort
	Query string
}

// Builder composes views from the repositories.
type Builder struct {
	Accounts      repositories.AccountRepository
	Videos        repositories.VideoRepository
	Comments      repositories.CommentRepository
	Tweets        repositories.TweetRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
	Playlists     repositories.PlaylistRepository
}

func readError(op, entity, id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(op, entity, id)
	}
	return &apperrors.Error{Kind: apperrors.KindStorageFailed, Op: op, Entity: entity, ID: id, Err: err}
}

func summarize(a models.Account) OwnerSummary {
	return OwnerSummary{ID: a.ID, Username: a.Username, FullName: a.FullName, Avatar: a.Avatar}
}

// owners loads the accounts behind ids. An id without an account maps to a
// summary carrying only the id.
func (b *Builder) owners(ctx context.Context, ids []string) (map[string]OwnerSummary, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	accounts, err := b.Accounts.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	out := make(map[string]OwnerSummary, len(unique))
	for _, id := range unique {
		out[id] = OwnerSummary{ID: id}
	}
	for _, a := range accounts {
		out[a.ID] = summarize(a)
	}
	return out, nil
}

// visible reports whether viewerID may see video in a listing.
func visible(v models.Video, viewerID string) bool {
	return v.IsPublished || (viewerID != "" && v.OwnerID == viewerID)
}

func (b *Builder) videoViews(ctx context.Context, videos []models.Video) ([]VideoView, error) {
	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := b.owners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		out = append(out, VideoView{
			ID:          v.ID,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Views:       v.Views,
			IsPublished: v.IsPublished,
			CreatedAt:   v.CreatedAt,
			UpdatedAt:   v.UpdatedAt,
			Owner:       owners[v.OwnerID],
		})
	}
	return out, nil
}

// orderedVideos fetches ids and returns the resolvable ones in the order of ids.
func (b *Builder) orderedVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	found, err := b.Videos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Video, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}
	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func matchesQuery(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func compareVideos(field string) func(a, b VideoView) int {
	switch field {
	case FieldUpdatedAt:
		return func(a, b VideoView) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case FieldTitle:
		return func(a, b VideoView) int { return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case FieldViews:
		return func(a, b VideoView) int { return cmp.Compare(a.Views, b.Views) }
	case FieldDuration:
		return func(a, b VideoView) int { return cmp.Compare(a.Duration, b.Duration) }
	default:
		return func(a, b VideoView) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func compareComments(field string) func(a, b CommentView) int {
	if field == FieldUpdatedAt {
		return func(a, b CommentView) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	}
	return func(a, b CommentView) int { return a.CreatedAt.Compare(b.CreatedAt) }
}

// sortItems orders items by compare in the requested direction. Ties are
// broken by id so pages stay stable across requests.
func sortItems[T any](items []T, desc bool, compare func(a, b T) int, id func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := compare(a, b)
		if c == 0 {
			c = cmp.Compare(id(a), id(b))
		}
		if desc {
			return -c
		}
		return c
	})
}
