package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/logging"
)

// EngagementHandler exposes like and subscription toggles.
type EngagementHandler struct {
	Toggles Toggler
	Limiter RateLimiter
}

type toggleResponse struct {
	State  engagement.State `json:"state"`
	Kind   engagement.Kind  `json:"kind"`
	Target string           `json:"targetId"`
	EdgeID string           `json:"edgeId,omitempty"`
}

// ToggleVideoLike handles POST /api/v1/likes/videos/{videoId}.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, engagement.KindVideoLike, r.PathValue("videoId"))
}

// ToggleCommentLike handles POST /api/v1/likes/comments/{commentId}.
func (h EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, engagement.KindCommentLike, r.PathValue("commentId"))
}

// ToggleTweetLike handles POST /api/v1/likes/tweets/{tweetId}.
func (h EngagementHandler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, engagement.KindTweetLike, r.PathValue("tweetId"))
}

// ToggleSubscription handles POST /api/v1/subscriptions/{channelId}.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, engagement.KindSubscription, r.PathValue("channelId"))
}

func (h EngagementHandler) toggle(w http.ResponseWriter, r *http.Request, kind engagement.Kind, targetID string) {
	ctx := r.Context()

	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	if h.Toggles == nil {
		logging.FromContext(ctx).Error("engagement service unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "engagement service unavailable", Kind: "unavailable"})
		return
	}
	if !allowRequest(h.Limiter, w, r, "toggle") {
		return
	}

	result, err := h.Toggles.Toggle(ctx, actorID, engagement.Target{Kind: kind, ID: targetID})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	resp := toggleResponse{State: result.State, Kind: kind, Target: targetID}
	switch {
	case result.Like != nil:
		resp.EdgeID = result.Like.ID
	case result.Subscription != nil:
		resp.EdgeID = result.Subscription.ID
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}
