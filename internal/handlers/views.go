package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

// MaxPageLimit caps the page size clients may request.
const MaxPageLimit = 100

// ViewHandler exposes the read models.
type ViewHandler struct {
	Views ViewBuilder
}

func pageParams(r *http.Request) pagination.Params {
	q := r.URL.Query()
	params := pagination.ParseParams(q.Get("page"), q.Get("limit"))
	if params.Limit > MaxPageLimit {
		params.Limit = MaxPageLimit
	}
	return params
}

func listOptions(r *http.Request, sortFields ...string) views.ListOptions {
	q := r.URL.Query()
	return views.ListOptions{
		Page:  pageParams(r),
		Sort:  pagination.ParseSort(q.Get("sortBy"), q.Get("sortType"), sortFields...),
		Query: q.Get("query"),
	}
}

func (h ViewHandler) available(w http.ResponseWriter, r *http.Request) bool {
	if h.Views != nil {
		return true
	}
	logging.FromContext(r.Context()).Error("view builder unavailable")
	respondJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Error: "views unavailable", Kind: "unavailable"})
	return false
}

func respondView[T any](w http.ResponseWriter, r *http.Request, value T, err error) {
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, value)
}

// ChannelStats handles GET /api/v1/channels/{channelId}/stats.
func (h ViewHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	stats, err := h.Views.ChannelStats(r.Context(), r.PathValue("channelId"))
	respondView(w, r, stats, err)
}

// ChannelSubscribers handles GET /api/v1/channels/{channelId}/subscribers.
func (h ViewHandler) ChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.ChannelSubscribers(r.Context(), r.PathValue("channelId"), pageParams(r))
	respondView(w, r, page, err)
}

// SubscribedChannels handles GET /api/v1/accounts/{accountId}/subscriptions.
func (h ViewHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.SubscribedChannels(r.Context(), r.PathValue("accountId"), pageParams(r))
	respondView(w, r, page, err)
}

// ChannelProfile handles GET /api/v1/users/{username}/profile.
func (h ViewHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	viewer := logging.ActorIDFromContext(r.Context())
	profile, err := h.Views.ChannelProfile(r.Context(), r.PathValue("username"), viewer)
	respondView(w, r, profile, err)
}

// UserTweets handles GET /api/v1/users/{username}/tweets.
func (h ViewHandler) UserTweets(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.UserTweets(r.Context(), r.PathValue("username"), pageParams(r))
	respondView(w, r, page, err)
}

// UserPlaylists handles GET /api/v1/accounts/{accountId}/playlists.
func (h ViewHandler) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.UserPlaylists(r.Context(), r.PathValue("accountId"), pageParams(r))
	respondView(w, r, page, err)
}

// WatchHistory handles GET /api/v1/me/history.
func (h ViewHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	history, err := h.Views.WatchHistory(r.Context(), actorID)
	respondView(w, r, history, err)
}

// LikedVideos handles GET /api/v1/me/liked-videos.
func (h ViewHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	page, err := h.Views.LikedVideos(r.Context(), actorID, pageParams(r))
	respondView(w, r, page, err)
}

// ListVideos handles GET /api/v1/videos. Supported query parameters are
// query, userId, sortBy, sortType, page and limit.
func (h ViewHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.VideoListing(r.Context(), views.ListVideosQuery{
		ListOptions: listOptions(r, views.VideoSortFields...),
		OwnerID:     r.URL.Query().Get("userId"),
		ViewerID:    logging.ActorIDFromContext(r.Context()),
	})
	respondView(w, r, page, err)
}

// GetVideo handles GET /api/v1/videos/{videoId}.
func (h ViewHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	detail, err := h.Views.VideoByID(r.Context(), r.PathValue("videoId"), logging.ActorIDFromContext(r.Context()))
	respondView(w, r, detail, err)
}

// VideoComments handles GET /api/v1/videos/{videoId}/comments.
func (h ViewHandler) VideoComments(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	page, err := h.Views.CommentsForVideo(r.Context(), r.PathValue("videoId"), logging.ActorIDFromContext(r.Context()), listOptions(r, views.CommentSortFields...))
	respondView(w, r, page, err)
}

// GetPlaylist handles GET /api/v1/playlists/{playlistId}.
func (h ViewHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	if !h.available(w, r) {
		return
	}
	playlist, err := h.Views.PlaylistContents(r.Context(), r.PathValue("playlistId"), logging.ActorIDFromContext(r.Context()), listOptions(r, views.PlaylistSortFields...))
	respondView(w, r, playlist, err)
}
