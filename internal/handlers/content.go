package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/content"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

const (
	// multipartMemory is how much of a multipart body is buffered before
	// spilling to disk.
	multipartMemory = 32 << 20
	// MaxUploadBytes bounds multipart request bodies.
	MaxUploadBytes = 1 << 30
)

// ContentHandler exposes the content mutations.
type ContentHandler struct {
	Content ContentService
	// UploadDir receives multipart files before they are handed to the blob
	// store. Empty means os.TempDir.
	UploadDir string
	Limiter   RateLimiter
}

type textRequest struct {
	Content string `json:"content"`
}

type playlistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type accountRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h ContentHandler) available(w http.ResponseWriter, r *http.Request) bool {
	if h.Content != nil {
		return true
	}
	logging.FromContext(r.Context()).Error("content service unavailable")
	respondJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Error: "content service unavailable", Kind: "unavailable"})
	return false
}

// uploads collects multipart files spooled to disk. Files the blob store did
// not consume are removed by cleanup.
type uploads struct {
	dir   string
	paths []string
}

func (u *uploads) save(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	return u.spool(file, header)
}

func (u *uploads) spool(file multipart.File, header *multipart.FileHeader) (string, error) {
	dir := u.dir
	if dir == "" {
		dir = os.TempDir()
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	u.paths = append(u.paths, out.Name())

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return out.Name(), nil
}

func (u *uploads) cleanup() {
	for _, p := range u.paths {
		_ = os.Remove(p)
	}
}

func (h ContentHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		logging.FromContext(r.Context()).Warn("invalid multipart payload", "error", err)
		respondJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body", Kind: "invalid"})
		return false
	}
	return true
}

func (h ContentHandler) saveFiles(w http.ResponseWriter, r *http.Request, u *uploads, fields ...string) (map[string]string, bool) {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		path, err := u.save(r, field)
		if err != nil {
			logging.FromContext(r.Context()).Error("spool upload failed", "field", field, "error", err)
			respondJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Error: "failed to store upload", Kind: "unknown"})
			return nil, false
		}
		out[field] = path
	}
	return out, true
}

// Register handles POST /api/v1/accounts as multipart form data with
// optional avatar and coverImage files.
func (h ContentHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.available(w, r) || !allowRequest(h.Limiter, w, r, "register") || !h.parseMultipart(w, r) {
		return
	}

	u := &uploads{dir: h.UploadDir}
	defer u.cleanup()
	files, ok := h.saveFiles(w, r, u, "avatar", "coverImage")
	if !ok {
		return
	}

	account, err := h.Content.Register(ctx, content.RegisterInput{
		Username:       r.FormValue("username"),
		Email:          r.FormValue("email"),
		FullName:       r.FormValue("fullName"),
		Password:       r.FormValue("password"),
		AvatarPath:     files["avatar"],
		CoverImagePath: files["coverImage"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, account)
}

// UpdateAccount handles PATCH /api/v1/me.
func (h ContentHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	account, err := h.Content.UpdateAccount(ctx, actorID, content.UpdateAccountInput{FullName: req.FullName, Email: req.Email})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, account)
}

// UpdateAvatar handles PATCH /api/v1/me/avatar with a multipart avatar file.
func (h ContentHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", func(ctx context.Context, actorID, path string) (models.Account, error) {
		return h.Content.UpdateAvatar(ctx, actorID, path)
	})
}

// UpdateCoverImage handles PATCH /api/v1/me/cover-image with a multipart
// coverImage file.
func (h ContentHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", func(ctx context.Context, actorID, path string) (models.Account, error) {
		return h.Content.UpdateCoverImage(ctx, actorID, path)
	})
}

func (h ContentHandler) replaceImage(w http.ResponseWriter, r *http.Request, field string, update func(context.Context, string, string) (models.Account, error)) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) || !h.parseMultipart(w, r) {
		return
	}

	u := &uploads{dir: h.UploadDir}
	defer u.cleanup()
	files, ok := h.saveFiles(w, r, u, field)
	if !ok {
		return
	}

	account, err := update(ctx, actorID, files[field])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, account)
}

// ChangePassword handles POST /api/v1/me/password.
func (h ContentHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Content.ChangePassword(ctx, actorID, req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishVideo handles POST /api/v1/videos as multipart form data with
// videoFile and thumbnail files.
func (h ContentHandler) PublishVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) || !h.parseMultipart(w, r) {
		return
	}

	u := &uploads{dir: h.UploadDir}
	defer u.cleanup()
	files, ok := h.saveFiles(w, r, u, "videoFile", "thumbnail")
	if !ok {
		return
	}

	video, err := h.Content.PublishVideo(ctx, actorID, content.PublishVideoInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoPath:     files["videoFile"],
		ThumbnailPath: files["thumbnail"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, video)
}

// UpdateVideo handles PATCH /api/v1/videos/{videoId} as multipart form data.
func (h ContentHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) || !h.parseMultipart(w, r) {
		return
	}

	u := &uploads{dir: h.UploadDir}
	defer u.cleanup()
	files, ok := h.saveFiles(w, r, u, "thumbnail")
	if !ok {
		return
	}

	in := content.UpdateVideoInput{ThumbnailPath: files["thumbnail"]}
	if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
		in.Title = &values[0]
	}
	if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
		in.Description = &values[0]
	}

	video, err := h.Content.UpdateVideo(ctx, actorID, r.PathValue("videoId"), in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish.
func (h ContentHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	video, err := h.Content.TogglePublishStatus(ctx, actorID, r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, video)
}

// RecordView handles POST /api/v1/videos/{videoId}/views. Anonymous viewers
// count but have no history.
func (h ContentHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.available(w, r) || !allowRequest(h.Limiter, w, r, "view") {
		return
	}
	video, err := h.Content.RecordView(ctx, logging.ActorIDFromContext(ctx), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"videoId": video.ID, "views": video.Views})
}

// AddComment handles POST /api/v1/videos/{videoId}/comments.
func (h ContentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Content.AddComment(ctx, actorID, r.PathValue("videoId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, comment)
}

// UpdateComment handles PATCH /api/v1/comments/{commentId}.
func (h ContentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Content.UpdateComment(ctx, actorID, r.PathValue("commentId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, comment)
}

// CreateTweet handles POST /api/v1/tweets.
func (h ContentHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	tweet, err := h.Content.CreateTweet(ctx, actorID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, tweet)
}

// UpdateTweet handles PATCH /api/v1/tweets/{tweetId}.
func (h ContentHandler) UpdateTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	tweet, err := h.Content.UpdateTweet(ctx, actorID, r.PathValue("tweetId"), req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tweet)
}

// CreatePlaylist handles POST /api/v1/playlists.
func (h ContentHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	var name, description string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	playlist, err := h.Content.CreatePlaylist(ctx, actorID, name, description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, playlist)
}

// UpdatePlaylist handles PATCH /api/v1/playlists/{playlistId}.
func (h ContentHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Content.UpdatePlaylist(ctx, actorID, r.PathValue("playlistId"), content.PlaylistInput{Name: req.Name, Description: req.Description})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist)
}

// AddPlaylistVideo handles PUT /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h ContentHandler) AddPlaylistVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	playlist, err := h.Content.AddVideoToPlaylist(ctx, actorID, r.PathValue("playlistId"), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist)
}

// RemovePlaylistVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h ContentHandler) RemovePlaylistVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID, ok := requireActor(w, r)
	if !ok || !h.available(w, r) {
		return
	}
	playlist, err := h.Content.RemoveVideoFromPlaylist(ctx, actorID, r.PathValue("playlistId"), r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlist)
}
