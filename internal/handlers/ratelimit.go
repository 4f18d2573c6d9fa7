package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/logging"
)

// RateLimiter throttles callers per scope, such as "toggle" or "register".
type RateLimiter interface {
	Allow(scope, caller string) bool
}

// allowRequest consumes a token for the caller within scope, writing 429 when
// none is left. A nil limiter allows everything.
func allowRequest(limiter RateLimiter, w http.ResponseWriter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	if limiter.Allow(scope, rateLimitCaller(r)) {
		return true
	}
	w.Header().Set("Retry-After", "1")
	respondJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded", Kind: "rate limited"})
	return false
}

// rateLimitCaller buckets authenticated callers by actor and anonymous ones by address.
func rateLimitCaller(r *http.Request) string {
	if actorID := logging.ActorIDFromContext(r.Context()); actorID != "" {
		return actorID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
