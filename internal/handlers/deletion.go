package handlers

import (
	"context"
	"net/http"

	"github.com/vidtube/backend/internal/logging"
)

// DeletionHandler exposes the cascading deletes.
type DeletionHandler struct {
	Deleter Deleter
}

// DeleteVideo handles DELETE /api/v1/videos/{videoId}.
func (h DeletionHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "videoId", func(ctx context.Context, actor, id string) error { return h.Deleter.DeleteVideo(ctx, actor, id) })
}

// DeleteComment handles DELETE /api/v1/comments/{commentId}.
func (h DeletionHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "commentId", func(ctx context.Context, actor, id string) error { return h.Deleter.DeleteComment(ctx, actor, id) })
}

// DeleteTweet handles DELETE /api/v1/tweets/{tweetId}.
func (h DeletionHandler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "tweetId", func(ctx context.Context, actor, id string) error { return h.Deleter.DeleteTweet(ctx, actor, id) })
}

// DeletePlaylist handles DELETE /api/v1/playlists/{playlistId}.
func (h DeletionHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "playlistId", func(ctx context.Context, actor, id string) error { return h.Deleter.DeletePlaylist(ctx, actor, id) })
}

// DeleteAccount handles DELETE /api/v1/accounts/{accountId}.
func (h DeletionHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "accountId", func(ctx context.Context, actor, id string) error { return h.Deleter.DeleteAccount(ctx, actor, id) })
}

func (h DeletionHandler) run(w http.ResponseWriter, r *http.Request, param string, del func(ctx context.Context, actorID, id string) error) {
	ctx := r.Context()

	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	if h.Deleter == nil {
		logging.FromContext(ctx).Error("deletion service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "deletion service unavailable", Kind: "unavailable"})
		return
	}

	if err := del(ctx, actorID, r.PathValue(param)); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
