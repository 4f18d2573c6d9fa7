package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/blobs"
	"github.com/vidtube/backend/internal/cascade"
	"github.com/vidtube/backend/internal/content"
	"github.com/vidtube/backend/internal/engagement"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

const actorHeader = "X-Actor-ID"

var epoch = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	store   *repositories.MemoryStore
	blobs   *blobs.MemoryStore
	handler http.Handler
}

func newTestServer(t *testing.T, limiter RateLimiter) *testServer {
	t.Helper()
	store := repositories.NewMemoryStore()
	blobStore := blobs.NewMemoryStore(nil)

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Toggles: &engagement.Service{
			Accounts:      store.Accounts(),
			Videos:        store.Videos(),
			Comments:      store.Comments(),
			Tweets:        store.Tweets(),
			Likes:         store.Likes(),
			Subscriptions: store.Subscriptions(),
		},
		Deleter: &cascade.Deleter{
			Accounts:      store.Accounts(),
			Videos:        store.Videos(),
			Comments:      store.Comments(),
			Tweets:        store.Tweets(),
			Likes:         store.Likes(),
			Subscriptions: store.Subscriptions(),
			Playlists:     store.Playlists(),
			Blobs:         blobStore,
		},
		Views: &views.Builder{
			Accounts:      store.Accounts(),
			Videos:        store.Videos(),
			Comments:      store.Comments(),
			Tweets:        store.Tweets(),
			Likes:         store.Likes(),
			Subscriptions: store.Subscriptions(),
			Playlists:     store.Playlists(),
		},
		Content: &content.Service{
			Accounts:  store.Accounts(),
			Videos:    store.Videos(),
			Comments:  store.Comments(),
			Tweets:    store.Tweets(),
			Playlists: store.Playlists(),
			Blobs:     blobStore,
			NowFunc:   func() time.Time { return epoch },
		},
		Limiter:   limiter,
		UploadDir: t.TempDir(),
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testServer{
		t:       t,
		store:   store,
		blobs:   blobStore,
		handler: middleware.RequestLogger(logger, actorHeader)(mux),
	}
}

func (s *testServer) account(username string) models.Account {
	s.t.Helper()
	a := models.Account{ID: "acct-" + username, Username: username, Email: username + "@example.com", FullName: username, WatchHistory: []string{}, CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(s.t, s.store.Accounts().Create(context.Background(), a))
	return a
}

func (s *testServer) video(id, ownerID string, views int64, published bool, age time.Duration) models.Video {
	s.t.Helper()
	created := epoch.Add(-age)
	v := models.Video{ID: id, OwnerID: ownerID, Title: "video " + id, VideoFile: blobs.MemoryPrefix + id + ".mp4", Views: views, IsPublished: published, CreatedAt: created, UpdatedAt: created}
	require.NoError(s.t, s.store.Videos().Create(context.Background(), v))
	s.blobs.Put(v.VideoFile, []byte("media"))
	return v
}

func (s *testServer) do(method, path, actorID string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if actorID != "" {
		req.Header.Set(actorHeader, actorID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestToggleVideoLikeRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")
	fan := s.account("fan")
	s.video("v1", owner.ID, 0, true, 0)

	rec := s.do(http.MethodPost, "/api/v1/likes/videos/v1", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/likes/videos/v1", fan.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decode[toggleResponse](t, rec)
	assert.Equal(t, engagement.StateAdded, added.State)
	assert.Equal(t, "v1", added.Target)
	assert.NotEmpty(t, added.EdgeID)

	rec = s.do(http.MethodGet, "/api/v1/videos/v1", fan.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[views.VideoDetail](t, rec)
	assert.Equal(t, int64(1), detail.LikeCount)
	assert.True(t, detail.IsLikedByViewer)

	rec = s.do(http.MethodPost, "/api/v1/likes/videos/v1", fan.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engagement.StateRemoved, decode[toggleResponse](t, rec).State)

	rec = s.do(http.MethodPost, "/api/v1/likes/videos/missing", fan.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[errorResponse](t, rec).Kind)
}

func TestToggleSubscriptionRejectsSelf(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")

	rec := s.do(http.MethodPost, "/api/v1/subscriptions/"+owner.ID, owner.ID, nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "invalid relationship", body.Kind)
	assert.Equal(t, "cannot subscribe to own channel", body.Error)
}

func TestToggleIsRateLimitedPerActor(t *testing.T) {
	s := newTestServer(t, middleware.NewKeyedLimiter(middleware.Rule{Requests: 1, Window: time.Hour, Burst: 1}, time.Hour))
	owner := s.account("owner")
	fan := s.account("fan")
	other := s.account("other")
	s.video("v1", owner.ID, 0, true, 0)

	rec := s.do(http.MethodPost, "/api/v1/likes/videos/v1", fan.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/likes/videos/v1", fan.ID, nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = s.do(http.MethodPost, "/api/v1/likes/videos/v1", other.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteVideoRequiresOwner(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")
	fan := s.account("fan")
	v := s.video("v1", owner.ID, 0, true, 0)

	rec := s.do(http.MethodDelete, "/api/v1/videos/v1", fan.ID, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "video forbidden", decode[errorResponse](t, rec).Error)

	rec = s.do(http.MethodDelete, "/api/v1/videos/v1", owner.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.False(t, s.blobs.Has(v.VideoFile))

	rec = s.do(http.MethodGet, "/api/v1/videos/v1", owner.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListVideosSortsAndPaginates(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")
	s.video("v1", owner.ID, 5, true, 3*time.Hour)
	s.video("v2", owner.ID, 10, true, 2*time.Hour)
	s.video("v3", owner.ID, 1, true, time.Hour)
	s.video("draft", owner.ID, 100, false, 0)

	rec := s.do(http.MethodGet, "/api/v1/videos?sortBy=views&sortType=desc&limit=2", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Items      []views.VideoView `json:"items"`
		TotalItems int               `json:"totalItems"`
		TotalPages int               `json:"totalPages"`
	}](t, rec)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "v2", page.Items[0].ID)
	assert.Equal(t, "v1", page.Items[1].ID)
	assert.Equal(t, "owner", page.Items[0].Owner.Username)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)

	rec = s.do(http.MethodGet, "/api/v1/videos?limit=500", owner.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	ownPage := decode[struct {
		Items []views.VideoView `json:"items"`
		Limit int               `json:"limit"`
	}](t, rec)
	assert.Equal(t, MaxPageLimit, ownPage.Limit)
	require.Len(t, ownPage.Items, 4)
	assert.Equal(t, "draft", ownPage.Items[0].ID)

	rec = s.do(http.MethodGet, "/api/v1/videos?page=1000000000000000000&limit=2", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	past := decode[struct {
		Items      []views.VideoView `json:"items"`
		TotalPages int               `json:"totalPages"`
	}](t, rec)
	assert.Empty(t, past.Items)
	assert.Equal(t, 2, past.TotalPages)

	rec = s.do(http.MethodGet, "/api/v1/videos?userId=nobody", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChannelStatsUnknownChannel(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/v1/channels/nobody/stats", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", decode[errorResponse](t, rec).Error)
}

func TestAddCommentDecodesBody(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")
	fan := s.account("fan")
	s.video("v1", owner.ID, 0, true, 0)

	rec := s.do(http.MethodPost, "/api/v1/videos/v1/comments", fan.ID, strings.NewReader(`{"content":"great clip"}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[models.Comment](t, rec)
	assert.Equal(t, "great clip", comment.Content)
	assert.Equal(t, fan.ID, comment.OwnerID)
	assert.Equal(t, "v1", comment.VideoID)

	rec = s.do(http.MethodPost, "/api/v1/videos/v1/comments", fan.ID, strings.NewReader(`{"content":"x","extra":1}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode[errorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/v1/videos/v1/comments", fan.ID, strings.NewReader(`{"content":"   "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/videos/v1/comments", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode[struct {
		Items []views.CommentView `json:"items"`
	}](t, rec)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "fan", listing.Items[0].Owner.Username)
}

func TestRegisterAcceptsMultipart(t *testing.T) {
	s := newTestServer(t, nil)

	form := func(username string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("username", username))
		require.NoError(t, mw.WriteField("email", strings.ToLower(username)+"@example.com"))
		require.NoError(t, mw.WriteField("fullName", "Jane Doe"))
		require.NoError(t, mw.WriteField("password", "correct horse"))
		part, err := mw.CreateFormFile("avatar", "face.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	body, contentType := form("Jane")
	rec := s.do(http.MethodPost, "/api/v1/accounts", "", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	raw := decode[map[string]any](t, rec)
	assert.Equal(t, "jane", raw["username"])
	assert.NotContains(t, raw, "passwordHash")
	assert.NotContains(t, raw, "PasswordHash")
	avatar, _ := raw["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatar, blobs.MemoryPrefix))
	assert.True(t, s.blobs.Has(avatar))

	body, contentType = form("jane")
	rec = s.do(http.MethodPost, "/api/v1/accounts", "", body, contentType)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, s.blobs.Len())

	rec = s.do(http.MethodPost, "/api/v1/accounts", "", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountSettings(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.account("owner")
	s.account("taken")

	rec := s.do(http.MethodPatch, "/api/v1/me", "", strings.NewReader(`{"fullName":"x"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPatch, "/api/v1/me", owner.ID, strings.NewReader(`{"fullName":"Owner Renamed","email":"Owner2@Example.com"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Account](t, rec)
	assert.Equal(t, "Owner Renamed", updated.FullName)
	assert.Equal(t, "owner2@example.com", updated.Email)

	rec = s.do(http.MethodPatch, "/api/v1/me", owner.ID, strings.NewReader(`{"email":"taken@example.com"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	image := func(field, name string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(name))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	body, contentType := image("avatar", "first.png")
	rec = s.do(http.MethodPatch, "/api/v1/me/avatar", owner.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[models.Account](t, rec).Avatar
	assert.True(t, s.blobs.Has(first))

	body, contentType = image("avatar", "second.png")
	rec = s.do(http.MethodPatch, "/api/v1/me/avatar", owner.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[models.Account](t, rec).Avatar
	assert.False(t, s.blobs.Has(first))
	assert.True(t, s.blobs.Has(second))

	body, contentType = image("coverImage", "cover.png")
	rec = s.do(http.MethodPatch, "/api/v1/me/cover-image", owner.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, s.blobs.Has(decode[models.Account](t, rec).CoverImage))

	body, contentType = image("wrongField", "x.png")
	rec = s.do(http.MethodPatch, "/api/v1/me/avatar", owner.ID, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hash, err := bcrypt.GenerateFromPassword([]byte("old secret"), bcrypt.MinCost)
	require.NoError(t, err)
	member := models.Account{ID: "acct-member", Username: "member", Email: "member@example.com", FullName: "member", PasswordHash: string(hash), CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(t, s.store.Accounts().Create(context.Background(), member))

	rec = s.do(http.MethodPost, "/api/v1/me/password", member.ID, strings.NewReader(`{"oldPassword":"wrong secret","newPassword":"new secret"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodPost, "/api/v1/me/password", member.ID, strings.NewReader(`{"oldPassword":"old secret","newPassword":"new secret"}`), "application/json")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	stored, err := s.store.Accounts().FindByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new secret")))
}

func TestRespondErrorMapsKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   errorResponse
	}{
		{
			name:       "not found",
			err:        apperrors.NotFound("op", "video", "v1"),
			wantStatus: http.StatusNotFound,
			wantBody:   errorResponse{Error: "video not found", Kind: "not found"},
		},
		{
			name:       "invalid",
			err:        apperrors.Invalid("op", "title is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   errorResponse{Error: "title is required", Kind: "invalid"},
		},
		{
			name:       "conflict",
			err:        &apperrors.Error{Kind: apperrors.KindConflict, Op: "op", Entity: "account", ID: "jane"},
			wantStatus: http.StatusConflict,
			wantBody:   errorResponse{Error: "account conflict", Kind: "conflict"},
		},
		{
			name:       "upload",
			err:        apperrors.E(apperrors.KindUploadFailed, "op", errors.New("bucket down")),
			wantStatus: http.StatusBadGateway,
			wantBody:   errorResponse{Error: http.StatusText(http.StatusBadGateway), Kind: "upload failed"},
		},
		{
			name:       "storage hides cause",
			err:        apperrors.Storage("op", errors.New("connection refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   errorResponse{Error: http.StatusText(http.StatusServiceUnavailable), Kind: "storage failed"},
		},
		{
			name:       "fatal reports steps",
			err:        &apperrors.Error{Kind: apperrors.KindFatal, Op: "op", Step: cascade.StepPullFromPlaylists, Completed: cascade.StepDeleteVideoLikes, Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   errorResponse{Error: http.StatusText(http.StatusInternalServerError), Kind: "fatal", Step: cascade.StepPullFromPlaylists, LastCompleted: cascade.StepDeleteVideoLikes},
		},
		{
			name:       "plain error",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   errorResponse{Error: http.StatusText(http.StatusInternalServerError), Kind: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(context.Background(), rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, decode[errorResponse](t, rec))
		})
	}
}

func TestHandlersWithoutServicesReturn500(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{})

	for _, path := range []string{"/api/v1/videos", "/api/v1/channels/c1/stats"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", rateLimitCaller(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.9", rateLimitCaller(req))

	req = req.WithContext(logging.WithActorID(req.Context(), "acct-1"))
	assert.Equal(t, "acct-1", rateLimitCaller(req))
}
