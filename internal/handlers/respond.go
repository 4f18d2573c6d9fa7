package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

type errorResponse struct {
	Error         string `json:"error"`
	Kind          string `json:"kind"`
	Step          string `json:"step,omitempty"`
	LastCompleted string `json:"lastCompleted,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

// statusFor maps an error kind to the HTTP status reported to clients.
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindInvalid:
		return http.StatusBadRequest
	case apperrors.KindInvalidRelationship:
		return http.StatusUnprocessableEntity
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUploadFailed:
		return http.StatusBadGateway
	case apperrors.KindStorageFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders err using its kind. Store failures are reported
// without their underlying cause.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)

	body := errorResponse{Error: http.StatusText(status), Kind: kind.String()}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		switch kind {
		case apperrors.KindNotFound, apperrors.KindForbidden, apperrors.KindConflict:
			body.Error = kind.String()
			if appErr.Entity != "" {
				body.Error = appErr.Entity + " " + kind.String()
			}
		case apperrors.KindInvalid, apperrors.KindInvalidRelationship:
			if appErr.Message != "" {
				body.Error = appErr.Message
			}
		case apperrors.KindFatal:
			body.Step = appErr.Step
			body.LastCompleted = appErr.Completed
		}
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request error", "kind", kind.String(), "error", err)
	}
	respondJSON(ctx, w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Invalid("handlers.decodeJSON", "invalid request body")
	}
	return nil
}

// requireActor returns the acting account id or writes 401.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := logging.ActorIDFromContext(r.Context())
	if actorID == "" {
		respondJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Kind: "unauthenticated"})
		return "", false
	}
	return actorID, true
}
