package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/db"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Toggles   Toggler
	Deleter   Deleter
	Views     ViewBuilder
	Content   ContentService
	Limiter   RateLimiter
	DB        db.Pinger
	Metrics   http.Handler
	UploadDir string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	engagement := EngagementHandler{Toggles: deps.Toggles, Limiter: deps.Limiter}
	deletion := DeletionHandler{Deleter: deps.Deleter}
	views := ViewHandler{Views: deps.Views}
	content := ContentHandler{Content: deps.Content, UploadDir: deps.UploadDir, Limiter: deps.Limiter}

	mux.HandleFunc("GET /healthz", health.Handle)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.HandleFunc("POST /api/v1/likes/videos/{videoId}", engagement.ToggleVideoLike)
	mux.HandleFunc("POST /api/v1/likes/comments/{commentId}", engagement.ToggleCommentLike)
	mux.HandleFunc("POST /api/v1/likes/tweets/{tweetId}", engagement.ToggleTweetLike)
	mux.HandleFunc("POST /api/v1/subscriptions/{channelId}", engagement.ToggleSubscription)

	mux.HandleFunc("POST /api/v1/accounts", content.Register)
	mux.HandleFunc("DELETE /api/v1/accounts/{accountId}", deletion.DeleteAccount)
	mux.HandleFunc("GET /api/v1/accounts/{accountId}/subscriptions", views.SubscribedChannels)
	mux.HandleFunc("GET /api/v1/accounts/{accountId}/playlists", views.UserPlaylists)
	mux.HandleFunc("PATCH /api/v1/me", content.UpdateAccount)
	mux.HandleFunc("PATCH /api/v1/me/avatar", content.UpdateAvatar)
	mux.HandleFunc("PATCH /api/v1/me/cover-image", content.UpdateCoverImage)
	mux.HandleFunc("POST /api/v1/me/password", content.ChangePassword)
	mux.HandleFunc("GET /api/v1/me/history", views.WatchHistory)
	mux.HandleFunc("GET /api/v1/me/liked-videos", views.LikedVideos)
	mux.HandleFunc("GET /api/v1/users/{username}/profile", views.ChannelProfile)
	mux.HandleFunc("GET /api/v1/users/{username}/tweets", views.UserTweets)
	mux.HandleFunc("GET /api/v1/channels/{channelId}/stats", views.ChannelStats)
	mux.HandleFunc("GET /api/v1/channels/{channelId}/subscribers", views.ChannelSubscribers)

	mux.HandleFunc("GET /api/v1/videos", views.ListVideos)
	mux.HandleFunc("POST /api/v1/videos", content.PublishVideo)
	mux.HandleFunc("GET /api/v1/videos/{videoId}", views.GetVideo)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", content.UpdateVideo)
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", deletion.DeleteVideo)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}/publish", content.TogglePublish)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/views", content.RecordView)
	mux.HandleFunc("GET /api/v1/videos/{videoId}/comments", views.VideoComments)
	mux.HandleFunc("POST /api/v1/videos/{videoId}/comments", content.AddComment)

	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", content.UpdateComment)
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", deletion.DeleteComment)

	mux.HandleFunc("POST /api/v1/tweets", content.CreateTweet)
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", content.UpdateTweet)
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", deletion.DeleteTweet)

	mux.HandleFunc("POST /api/v1/playlists", content.CreatePlaylist)
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", views.GetPlaylist)
	mux.HandleFunc("PATCH /api/v1/playlists/{playlistId}", content.UpdatePlaylist)
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}", deletion.DeletePlaylist)
	mux.HandleFunc("PUT /api/v1/playlists/{playlistId}/videos/{videoId}", content.AddPlaylistVideo)
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", content.RemovePlaylistVideo)
}
