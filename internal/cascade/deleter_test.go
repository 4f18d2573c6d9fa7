package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/blobs"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type world struct {
	store   *repositories.MemoryStore
	blobs   *blobs.MemoryStore
	deleter *Deleter
	metrics *recorderStub
	owner   models.Account
	fan     models.Account
}

type recorderStub struct {
	mu          sync.Mutex
	completed   []string
	failedSteps []string
	blobFails   int
}

func (r *recorderStub) CascadeCompleted(op string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, op)
}

func (r *recorderStub) CascadeFailed(_ string, step string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedSteps = append(r.failedSteps, step)
}

func (r *recorderStub) BlobDeleteFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobFails++
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := repositories.NewMemoryStore()
	w := &world{store: store, blobs: blobs.NewMemoryStore(nil), metrics: &recorderStub{}}
	w.owner = w.account(t, "owner")
	w.fan = w.account(t, "fan")
	w.deleter = &Deleter{
		Accounts:      store.Accounts(),
		Videos:        store.Videos(),
		Comments:      store.Comments(),
		Tweets:        store.Tweets(),
		Likes:         store.Likes(),
		Subscriptions: store.Subscriptions(),
		Playlists:     store.Playlists(),
		Blobs:         w.blobs,
		Metrics:       w.metrics,
	}
	return w
}

func (w *world) account(t *testing.T, username string) models.Account {
	t.Helper()
	a := models.Account{
		ID:         "acct-" + username,
		Username:   username,
		Email:      username + "@example.com",
		Avatar:     "mem://avatar-" + username,
		CoverImage: "mem://cover-" + username,
	}
	require.NoError(t, w.store.Accounts().Create(context.Background(), a))
	w.blobs.Put(a.Avatar, []byte("a"))
	w.blobs.Put(a.CoverImage, []byte("c"))
	return a
}

func (w *world) video(t *testing.T, id, ownerID string) models.Video {
	t.Helper()
	v := models.Video{ID: id, OwnerID: ownerID, VideoFile: "mem://file-" + id, Thumbnail: "mem://thumb-" + id, Title: id}
	require.NoError(t, w.store.Videos().Create(context.Background(), v))
	w.blobs.Put(v.VideoFile, []byte("v"))
	w.blobs.Put(v.Thumbnail, []byte("t"))
	return v
}

func (w *world) comment(t *testing.T, id, ownerID, videoID string) models.Comment {
	t.Helper()
	c := models.Comment{ID: id, OwnerID: ownerID, VideoID: videoID, Content: id}
	require.NoError(t, w.store.Comments().Create(context.Background(), c))
	return c
}

func (w *world) like(t *testing.T, id, likedBy string, kind models.LikeKind, targetID string) {
	t.Helper()
	require.NoError(t, w.store.Likes().Create(context.Background(), models.Like{ID: id, LikedBy: likedBy, Target: models.LikeTarget{Kind: kind, ID: targetID}}))
}

func (w *world) likeCount(t *testing.T, kind models.LikeKind, ids ...string) int64 {
	t.Helper()
	n, err := w.store.Likes().CountByTargets(context.Background(), kind, ids)
	require.NoError(t, err)
	return n
}

func TestDeleteVideoRemovesEveryReference(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	video := w.video(t, "v1", w.owner.ID)
	other := w.video(t, "v2", w.owner.ID)
	w.comment(t, "c1", w.fan.ID, video.ID)
	w.comment(t, "c2", w.owner.ID, video.ID)
	w.comment(t, "c3", w.fan.ID, other.ID)
	w.like(t, "l1", w.owner.ID, models.LikeKindComment, "c1")
	w.like(t, "l2", w.fan.ID, models.LikeKindVideo, video.ID)
	w.like(t, "l3", w.fan.ID, models.LikeKindVideo, other.ID)

	require.NoError(t, w.store.Playlists().Create(ctx, models.Playlist{ID: "p1", OwnerID: w.fan.ID, Name: "mix", Videos: []string{video.ID, other.ID}}))
	require.NoError(t, w.store.Accounts().RecordWatch(ctx, w.fan.ID, video.ID))
	require.NoError(t, w.store.Accounts().RecordWatch(ctx, w.fan.ID, other.ID))

	require.NoError(t, w.deleter.DeleteVideo(ctx, w.owner.ID, video.ID))

	_, err := w.store.Videos().FindByID(ctx, video.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	comments, err := w.store.Comments().ListByVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Zero(t, w.likeCount(t, models.LikeKindComment, "c1", "c2"))
	assert.Zero(t, w.likeCount(t, models.LikeKindVideo, video.ID))

	playlist, err := w.store.Playlists().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, playlist.Videos)

	fan, err := w.store.Accounts().FindByID(ctx, w.fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{other.ID}, fan.WatchHistory)

	assert.False(t, w.blobs.Has(video.VideoFile))
	assert.False(t, w.blobs.Has(video.Thumbnail))
	assert.True(t, w.blobs.Has(other.VideoFile))

	_, err = w.store.Comments().FindByID(ctx, "c3")
	assert.NoError(t, err, "comments on other videos survive")
	assert.EqualValues(t, 1, w.likeCount(t, models.LikeKindVideo, other.ID))
	assert.Equal(t, []string{"cascade.DeleteVideo"}, w.metrics.completed)
}

func TestDeleteVideoOwnership(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	video := w.video(t, "v1", w.owner.ID)

	err := w.deleter.DeleteVideo(ctx, w.fan.ID, video.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = w.store.Videos().FindByID(ctx, video.ID)
	assert.NoError(t, err)
	assert.True(t, w.blobs.Has(video.VideoFile))

	err = w.deleter.DeleteVideo(ctx, w.fan.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "existence is checked before ownership")
}

type failingLikes struct {
	repositories.LikeRepository
}

func (failingLikes) DeleteByTarget(context.Context, models.LikeTarget) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestDeleteVideoFatalReportsSteps(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	video := w.video(t, "v1", w.owner.ID)
	w.comment(t, "c1", w.fan.ID, video.ID)
	w.deleter.Likes = failingLikes{LikeRepository: w.store.Likes()}

	err := w.deleter.DeleteVideo(ctx, w.owner.ID, video.ID)
	require.ErrorIs(t, err, apperrors.ErrFatal)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, StepDeleteVideoLikes, appErr.Step)
	assert.Equal(t, StepDeleteComments, appErr.Completed)
	assert.Equal(t, video.ID, appErr.ID)
	assert.Equal(t, []string{StepDeleteVideoLikes}, w.metrics.failedSteps)

	_, err = w.store.Videos().FindByID(ctx, video.ID)
	assert.NoError(t, err, "video row survives an aborted cascade")
	_, err = w.store.Comments().FindByID(ctx, "c1")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "completed steps are not rolled back")
	assert.True(t, w.blobs.Has(video.VideoFile), "blobs are untouched when the pipeline aborts")
}

type failingRemover struct{}

func (failingRemover) Delete(context.Context, string) error { return errors.New("object store down") }

func TestDeleteVideoBlobFailureIsBestEffort(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	video := w.video(t, "v1", w.owner.ID)
	w.deleter.Blobs = failingRemover{}

	require.NoError(t, w.deleter.DeleteVideo(ctx, w.owner.ID, video.ID))

	_, err := w.store.Videos().FindByID(ctx, video.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Equal(t, 2, w.metrics.blobFails)
}

func TestDeleteCommentAndTweet(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	video := w.video(t, "v1", w.owner.ID)
	w.comment(t, "c1", w.fan.ID, video.ID)
	w.like(t, "l1", w.owner.ID, models.LikeKindComment, "c1")

	require.NoError(t, w.store.Tweets().Create(ctx, models.Tweet{ID: "t1", OwnerID: w.owner.ID, Content: "hi"}))
	w.like(t, "l2", w.fan.ID, models.LikeKindTweet, "t1")

	assert.ErrorIs(t, w.deleter.DeleteComment(ctx, w.owner.ID, "c1"), apperrors.ErrForbidden)
	require.NoError(t, w.deleter.DeleteComment(ctx, w.fan.ID, "c1"))
	assert.Zero(t, w.likeCount(t, models.LikeKindComment, "c1"))
	assert.ErrorIs(t, w.deleter.DeleteComment(ctx, w.fan.ID, "c1"), apperrors.ErrNotFound)

	assert.ErrorIs(t, w.deleter.DeleteTweet(ctx, w.fan.ID, "t1"), apperrors.ErrForbidden)
	require.NoError(t, w.deleter.DeleteTweet(ctx, w.owner.ID, "t1"))
	assert.Zero(t, w.likeCount(t, models.LikeKindTweet, "t1"))
}

func TestDeletePlaylist(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	require.NoError(t, w.store.Playlists().Create(ctx, models.Playlist{ID: "p1", OwnerID: w.owner.ID, Name: "mix"}))

	assert.ErrorIs(t, w.deleter.DeletePlaylist(ctx, w.fan.ID, "p1"), apperrors.ErrForbidden)
	require.NoError(t, w.deleter.DeletePlaylist(ctx, w.owner.ID, "p1"))

	_, err := w.store.Playlists().FindByID(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDeleteAccountRemovesOwnedAndTouchedRecords(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	ownVideo := w.video(t, "own", w.owner.ID)
	fanVideo := w.video(t, "fanvid", w.fan.ID)
	w.comment(t, "fan-on-own", w.fan.ID, ownVideo.ID)
	w.comment(t, "own-on-fan", w.owner.ID, fanVideo.ID)
	w.like(t, "l1", w.fan.ID, models.LikeKindComment, "own-on-fan")
	w.like(t, "l2", w.owner.ID, models.LikeKindVideo, fanVideo.ID)
	w.like(t, "l3", w.fan.ID, models.LikeKindVideo, ownVideo.ID)

	require.NoError(t, w.store.Tweets().Create(ctx, models.Tweet{ID: "t1", OwnerID: w.owner.ID}))
	w.like(t, "l4", w.fan.ID, models.LikeKindTweet, "t1")
	require.NoError(t, w.store.Playlists().Create(ctx, models.Playlist{ID: "p1", OwnerID: w.owner.ID, Name: "mine"}))
	require.NoError(t, w.store.Playlists().Create(ctx, models.Playlist{ID: "p2", OwnerID: w.fan.ID, Name: "theirs", Videos: []string{ownVideo.ID, fanVideo.ID}}))
	require.NoError(t, w.store.Subscriptions().Create(ctx, models.Subscription{ID: "s1", SubscriberID: w.fan.ID, ChannelID: w.owner.ID}))
	require.NoError(t, w.store.Subscriptions().Create(ctx, models.Subscription{ID: "s2", SubscriberID: w.owner.ID, ChannelID: w.fan.ID}))

	assert.ErrorIs(t, w.deleter.DeleteAccount(ctx, w.fan.ID, w.owner.ID), apperrors.ErrForbidden)
	require.NoError(t, w.deleter.DeleteAccount(ctx, w.owner.ID, w.owner.ID))

	_, err := w.store.Accounts().FindByID(ctx, w.owner.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = w.store.Videos().FindByID(ctx, ownVideo.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = w.store.Comments().FindByID(ctx, "own-on-fan")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = w.store.Tweets().FindByID(ctx, "t1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = w.store.Playlists().FindByID(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.Zero(t, w.likeCount(t, models.LikeKindVideo, ownVideo.ID, fanVideo.ID))
	assert.Zero(t, w.likeCount(t, models.LikeKindComment, "own-on-fan"))
	assert.Zero(t, w.likeCount(t, models.LikeKindTweet, "t1"))

	subs, err := w.store.Subscriptions().CountBySubscriber(ctx, w.fan.ID)
	require.NoError(t, err)
	assert.Zero(t, subs)

	theirs, err := w.store.Playlists().FindByID(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{fanVideo.ID}, theirs.Videos)

	_, err = w.store.Videos().FindByID(ctx, fanVideo.ID)
	assert.NoError(t, err)

	assert.False(t, w.blobs.Has(w.owner.Avatar))
	assert.False(t, w.blobs.Has(w.owner.CoverImage))
	assert.False(t, w.blobs.Has(ownVideo.VideoFile))
	assert.True(t, w.blobs.Has(w.fan.Avatar))
	assert.True(t, w.blobs.Has(fanVideo.VideoFile))
}

func TestDeleteAccountFatalNamesVideoStep(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.video(t, "own", w.owner.ID)
	w.deleter.Likes = failingLikes{LikeRepository: w.store.Likes()}

	err := w.deleter.DeleteAccount(ctx, w.owner.ID, w.owner.ID)
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.KindFatal, appErr.Kind)
	assert.Equal(t, "video own: "+StepDeleteVideoLikes, appErr.Step)
	assert.Equal(t, "video own: "+StepDeleteComments, appErr.Completed)

	_, err = w.store.Accounts().FindByID(ctx, w.owner.ID)
	assert.NoError(t, err)
}
