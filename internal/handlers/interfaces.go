package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/cascade"
	"github.com/vidtube/backend/internal/content"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// Toggler flips like and subscription edges.
type Toggler interface {
	Toggle(ctx context.Context, actorID string, target engagement.Target) (engagement.Result, error)
}

// Deleter runs cascading deletions on behalf of an actor.
type Deleter interface {
	DeleteVideo(ctx context.Context, actorID, videoID string) error
	DeleteComment(ctx context.Context, actorID, commentID string) error
	DeleteTweet(ctx context.Context, actorID, tweetID string) error
	DeletePlaylist(ctx context.Context, actorID, playlistID string) error
	DeleteAccount(ctx context.Context, actorID, accountID string) error
}

// ViewBuilder produces read models.
type ViewBuilder interface {
	ChannelStats(ctx context.Context, channelID string) (views.ChannelStats, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (views.ChannelProfile, error)
	ChannelSubscribers(ctx context.Context, channelID string, params pagination.Params) (pagination.Page[views.OwnerSummary], error)
	SubscribedChannels(ctx context.Context, subscriberID string, params pagination.Params) (pagination.Page[views.OwnerSummary], error)
	WatchHistory(ctx context.Context, accountID string) ([]views.VideoView, error)
	VideoListing(ctx context.Context, q views.ListVideosQuery) (pagination.Page[views.VideoView], error)
	VideoByID(ctx context.Context, videoID, viewerID string) (views.VideoDetail, error)
	PlaylistContents(ctx context.Context, playlistID, viewerID string, opts views.ListOptions) (views.PlaylistView, error)
	CommentsForVideo(ctx context.Context, videoID, viewerID string, opts views.ListOptions) (pagination.Page[views.CommentView], error)
	LikedVideos(ctx context.Context, accountID string, params pagination.Params) (pagination.Page[views.VideoView], error)
	UserTweets(ctx context.Context, username string, params pagination.Params) (pagination.Page[views.TweetView], error)
	UserPlaylists(ctx context.Context, ownerID string, params pagination.Params) (pagination.Page[views.PlaylistSummary], error)
}

// ContentService creates and edits content.
type ContentService interface {
	Register(ctx context.Context, in content.RegisterInput) (models.Account, error)
	UpdateAccount(ctx context.Context, actorID string, in content.UpdateAccountInput) (models.Account, error)
	UpdateAvatar(ctx context.Context, actorID, path string) (models.Account, error)
	UpdateCoverImage(ctx context.Context, actorID, path string) (models.Account, error)
	ChangePassword(ctx context.Context, actorID, oldPassword, newPassword string) error
	PublishVideo(ctx context.Context, actorID string, in content.PublishVideoInput) (models.Video, error)
	UpdateVideo(ctx context.Context, actorID, videoID string, in content.UpdateVideoInput) (models.Video, error)
	TogglePublishStatus(ctx context.Context, actorID, videoID string) (models.Video, error)
	RecordView(ctx context.Context, viewerID, videoID string) (models.Video, error)
	AddComment(ctx context.Context, actorID, videoID, text string) (models.Comment, error)
	UpdateComment(ctx context.Context, actorID, commentID, text string) (models.Comment, error)
	CreateTweet(ctx context.Context, actorID, text string) (models.Tweet, error)
	UpdateTweet(ctx context.Context, actorID, tweetID, text string) (models.Tweet, error)
	CreatePlaylist(ctx context.Context, actorID, name, description string) (models.Playlist, error)
	UpdatePlaylist(ctx context.Context, actorID, playlistID string, in content.PlaylistInput) (models.Playlist, error)
	AddVideoToPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
	RemoveVideoFromPlaylist(ctx context.Context, actorID, playlistID, videoID string) (models.Playlist, error)
}

var (
	_ Toggler        = (*engagement.Service)(nil)
	_ Deleter        = (*cascade.Deleter)(nil)
	_ ViewBuilder    = (*views.Builder)(nil)
	_ ContentService = (*content.Service)(nil)
)
