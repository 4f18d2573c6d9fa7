package views

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

// ListVideosQuery filters the public video listing.
type ListVideosQuery struct {
	ListOptions
	// OwnerID restricts the listing to one channel when set.
	OwnerID string
	// ViewerID additionally exposes the viewer's own unpublished videos.
	ViewerID string
}

// VideoDetail is a single video with its like summary.
type VideoDetail struct {
	VideoView
	LikeCount       int64 `json:"likeCount"`
	IsLikedByViewer bool  `json:"isLikedByViewer"`
}

// PlaylistView is a playlist with one page of its videos.
type PlaylistView struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Owner       OwnerSummary               `json:"owner"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
	Videos      pagination.Page[VideoView] `json:"videos"`
}

// PlaylistSummary describes a playlist without its contents.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int       `json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func sortOrDefault(s pagination.Sort) pagination.Sort {
	if s.Field == "" {
		return pagination.DefaultSort
	}
	return s
}

// WatchHistory returns the videos accountID watched, most recent first.
// Videos that no longer exist, or that were unpublished by someone else, are skipped.
func (b *Builder) WatchHistory(ctx context.Context, accountID string) ([]VideoView, error) {
	const op = "views.WatchHistory"

	account, err := b.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, readError(op, "account", accountID, err)
	}

	videos, err := b.orderedVideos(ctx, account.WatchHistory)
	if err != nil {
		return nil, readError(op, "account", accountID, err)
	}
	videos = slices.DeleteFunc(videos, func(v models.Video) bool { return !visible(v, accountID) })

	out, err := b.videoViews(ctx, videos)
	if err != nil {
		return nil, readError(op, "account", accountID, err)
	}
	return out, nil
}

// VideoListing searches, sorts and paginates videos.
func (b *Builder) VideoListing(ctx context.Context, q ListVideosQuery) (pagination.Page[VideoView], error) {
	const op = "views.VideoListing"

	if q.OwnerID != "" {
		if _, err := b.Accounts.FindByID(ctx, q.OwnerID); err != nil {
			return pagination.Page[VideoView]{}, readError(op, "account", q.OwnerID, err)
		}
	}

	videos, err := b.Videos.List(ctx, repositories.VideoFilter{OwnerID: q.OwnerID})
	if err != nil {
		return pagination.Page[VideoView]{}, readError(op, "video", "", err)
	}
	videos = slices.DeleteFunc(videos, func(v models.Video) bool {
		return !visible(v, q.ViewerID) || !matchesQuery(q.Query, v.Title, v.Description)
	})

	items, err := b.videoViews(ctx, videos)
	if err != nil {
		return pagination.Page[VideoView]{}, readError(op, "video", "", err)
	}

	sort := sortOrDefault(q.Sort)
	sortItems(items, sort.Desc, compareVideos(sort.Field), func(v VideoView) string { return v.ID })
	return pagination.Paginate(items, q.Page), nil
}

// VideoByID returns one video with its like count. Unpublished videos resolve
// only for their owner.
func (b *Builder) VideoByID(ctx context.Context, videoID, viewerID string) (VideoDetail, error) {
	const op = "views.VideoByID"

	video, err := b.Videos.FindByID(ctx, videoID)
	if err != nil {
		return VideoDetail{}, readError(op, "video", videoID, err)
	}
	if !visible(video, viewerID) {
		return VideoDetail{}, readError(op, "video", videoID, repositories.ErrNotFound)
	}

	items, err := b.videoViews(ctx, []models.Video{video})
	if err != nil {
		return VideoDetail{}, readError(op, "video", videoID, err)
	}
	detail := VideoDetail{VideoView: items[0]}

	target := models.LikeTarget{Kind: models.LikeKindVideo, ID: videoID}
	if detail.LikeCount, err = b.Likes.CountByTargets(ctx, target.Kind, []string{videoID}); err != nil {
		return VideoDetail{}, readError(op, "video", videoID, err)
	}
	if viewerID != "" {
		_, err := b.Likes.Find(ctx, viewerID, target)
		switch {
		case err == nil:
			detail.IsLikedByViewer = true
		case !errors.Is(err, repositories.ErrNotFound):
			return VideoDetail{}, readError(op, "video", videoID, err)
		}
	}
	return detail, nil
}

// PlaylistContents returns a playlist with one page of its videos. Videos the
// viewer may not see are left out of the page and its totals.
func (b *Builder) PlaylistContents(ctx context.Context, playlistID, viewerID string, opts ListOptions) (PlaylistView, error) {
	const op = "views.PlaylistContents"

	playlist, err := b.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return PlaylistView{}, readError(op, "playlist", playlistID, err)
	}

	videos, err := b.orderedVideos(ctx, playlist.Videos)
	if err != nil {
		return PlaylistView{}, readError(op, "playlist", playlistID, err)
	}
	videos = slices.DeleteFunc(videos, func(v models.Video) bool {
		return !visible(v, viewerID) || !matchesQuery(opts.Query, v.Title, v.Description)
	})

	items, err := b.videoViews(ctx, videos)
	if err != nil {
		return PlaylistView{}, readError(op, "playlist", playlistID, err)
	}
	owners, err := b.owners(ctx, []string{playlist.OwnerID})
	if err != nil {
		return PlaylistView{}, readError(op, "playlist", playlistID, err)
	}

	sort := sortOrDefault(opts.Sort)
	if sort.Field == FieldPosition {
		if sort.Desc {
			slices.Reverse(items)
		}
	} else {
		sortItems(items, sort.Desc, compareVideos(sort.Field), func(v VideoView) string { return v.ID })
	}

	return PlaylistView{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       owners[playlist.OwnerID],
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
		Videos:      pagination.Paginate(items, opts.Page),
	}, nil
}

// CommentsForVideo pages through the comments on videoID.
func (b *Builder) CommentsForVideo(ctx context.Context, videoID, viewerID string, opts ListOptions) (pagination.Page[CommentView], error) {
	const op = "views.CommentsForVideo"

	video, err := b.Videos.FindByID(ctx, videoID)
	if err != nil {
		return pagination.Page[CommentView]{}, readError(op, "video", videoID, err)
	}
	if !visible(video, viewerID) {
		return pagination.Page[CommentView]{}, readError(op, "video", videoID, repositories.ErrNotFound)
	}

	comments, err := b.Comments.ListByVideo(ctx, videoID)
	if err != nil {
		return pagination.Page[CommentView]{}, readError(op, "video", videoID, err)
	}
	comments = slices.DeleteFunc(comments, func(c models.Comment) bool { return !matchesQuery(opts.Query, c.Content) })

	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.OwnerID)
	}
	owners, err := b.owners(ctx, authorIDs)
	if err != nil {
		return pagination.Page[CommentView]{}, readError(op, "video", videoID, err)
	}

	items := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		items = append(items, CommentView{
			ID:        c.ID,
			VideoID:   c.VideoID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
			Owner:     owners[c.OwnerID],
		})
	}

	sort := sortOrDefault(opts.Sort)
	sortItems(items, sort.Desc, compareComments(sort.Field), func(c CommentView) string { return c.ID })
	return pagination.Paginate(items, opts.Page), nil
}

// LikedVideos lists the videos accountID liked, most recently liked first.
func (b *Builder) LikedVideos(ctx context.Context, accountID string, params pagination.Params) (pagination.Page[VideoView], error) {
	const op = "views.LikedVideos"

	if _, err := b.Accounts.FindByID(ctx, accountID); err != nil {
		return pagination.Page[VideoView]{}, readError(op, "account", accountID, err)
	}
	likes, err := b.Likes.ListByLiker(ctx, accountID, models.LikeKindVideo)
	if err != nil {
		return pagination.Page[VideoView]{}, readError(op, "account", accountID, err)
	}

	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.Target.ID)
	}
	videos, err := b.orderedVideos(ctx, ids)
	if err != nil {
		return pagination.Page[VideoView]{}, readError(op, "account", accountID, err)
	}
	videos = slices.DeleteFunc(videos, func(v models.Video) bool { return !visible(v, accountID) })

	items, err := b.videoViews(ctx, videos)
	if err != nil {
		return pagination.Page[VideoView]{}, readError(op, "account", accountID, err)
	}
	return pagination.Paginate(items, params), nil
}

// UserTweets pages through the tweets posted by username, newest first.
func (b *Builder) UserTweets(ctx context.Context, username string, params pagination.Params) (pagination.Page[TweetView], error) {
	const op = "views.UserTweets"

	username = strings.ToLower(strings.TrimSpace(username))
	account, err := b.Accounts.FindByUsername(ctx, username)
	if err != nil {
		return pagination.Page[TweetView]{}, readError(op, "account", username, err)
	}
	tweets, err := b.Tweets.ListByOwner(ctx, account.ID)
	if err != nil {
		return pagination.Page[TweetView]{}, readError(op, "account", username, err)
	}

	owner := summarize(account)
	items := make([]TweetView, 0, len(tweets))
	for _, t := range tweets {
		items = append(items, TweetView{ID: t.ID, Content: t.Content, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, Owner: owner})
	}
	sortItems(items, true, func(x, y TweetView) int { return x.CreatedAt.Compare(y.CreatedAt) }, func(t TweetView) string { return t.ID })
	return pagination.Paginate(items, params), nil
}

// UserPlaylists pages through the playlists owned by ownerID, newest first.
func (b *Builder) UserPlaylists(ctx context.Context, ownerID string, params pagination.Params) (pagination.Page[PlaylistSummary], error) {
	const op = "views.UserPlaylists"

	if _, err := b.Accounts.FindByID(ctx, ownerID); err != nil {
		return pagination.Page[PlaylistSummary]{}, readError(op, "account", ownerID, err)
	}
	playlists, err := b.Playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return pagination.Page[PlaylistSummary]{}, readError(op, "account", ownerID, err)
	}

	items := make([]PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		items = append(items, PlaylistSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			VideoCount:  len(p.Videos),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	sortItems(items, true, func(x, y PlaylistSummary) int { return x.CreatedAt.Compare(y.CreatedAt) }, func(p PlaylistSummary) string { return p.ID })
	return pagination.Paginate(items, params), nil
}
