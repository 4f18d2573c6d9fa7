package blobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/config"
)

type uploaderStub struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *uploaderStub) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.key = aws.ToString(input.Key)
	u.contentType = aws.ToString(input.ContentType)
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	u.body = data
	return &manager.UploadOutput{Key: input.Key}, nil
}

type deleterStub struct {
	keys []string
	err  error
}

func (d *deleterStub) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	d.keys = append(d.keys, aws.ToString(input.Key))
	if d.err != nil {
		return nil, d.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

type proberStub struct {
	seconds float64
	err     error
	calls   int
}

func (p *proberStub) Duration(context.Context, string) (float64, error) {
	p.calls++
	return p.seconds, p.err
}

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func testObjectStore() config.ObjectStoreConfig {
	return config.ObjectStoreConfig{Bucket: "media", PublicBaseURL: "https://cdn.example.com/", KeyPrefix: "vidtube"}
}

func TestS3StorageUploadVideo(t *testing.T) {
	uploader := &uploaderStub{}
	prober := &proberStub{seconds: 42.5}
	store := newS3Storage(uploader, &deleterStub{}, prober, testObjectStore())

	local := writeTemp(t, "clip.MP4", "video-bytes")
	asset, err := store.Upload(context.Background(), local)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/"+uploader.key, asset.Ref)
	assert.Regexp(t, `^vidtube/[0-9a-f-]{36}\.mp4$`, uploader.key)
	assert.Equal(t, "video/mp4", uploader.contentType)
	assert.Equal(t, []byte("video-bytes"), uploader.body)
	assert.Equal(t, 42.5, asset.Duration)
	assert.Equal(t, 1, prober.calls)

	_, statErr := os.Stat(local)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "local file should be removed")
}

func TestS3StorageUploadImageSkipsProbe(t *testing.T) {
	prober := &proberStub{seconds: 10}
	store := newS3Storage(&uploaderStub{}, &deleterStub{}, prober, testObjectStore())

	asset, err := store.Upload(context.Background(), writeTemp(t, "thumb.png", "png"))
	require.NoError(t, err)
	assert.Zero(t, asset.Duration)
	assert.Zero(t, prober.calls)
}

func TestS3StorageUploadFailureRemovesLocalFile(t *testing.T) {
	store := newS3Storage(&uploaderStub{err: errors.New("boom")}, &deleterStub{}, nil, testObjectStore())

	local := writeTemp(t, "clip.mp4", "video")
	_, err := store.Upload(context.Background(), local)
	require.Error(t, err)

	_, statErr := os.Stat(local)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	_, err = store.Upload(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestS3StorageDelete(t *testing.T) {
	deleter := &deleterStub{}
	store := newS3Storage(&uploaderStub{}, deleter, nil, testObjectStore())

	require.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/vidtube/a.mp4"))
	require.NoError(t, store.Delete(context.Background(), "vidtube/b.png"))
	require.NoError(t, store.Delete(context.Background(), ""))
	assert.Equal(t, []string{"vidtube/a.mp4", "vidtube/b.png"}, deleter.keys)
}

func TestS3StorageDeleteToleratesMissingObject(t *testing.T) {
	missing := newS3Storage(&uploaderStub{}, &deleterStub{err: &smithy.GenericAPIError{Code: "NoSuchKey"}}, nil, testObjectStore())
	assert.NoError(t, missing.Delete(context.Background(), "vidtube/gone.mp4"))

	failing := newS3Storage(&uploaderStub{}, &deleterStub{err: &smithy.GenericAPIError{Code: "AccessDenied"}}, nil, testObjectStore())
	assert.Error(t, failing.Delete(context.Background(), "vidtube/locked.mp4"))
}

func TestFFprobeDuration(t *testing.T) {
	probe := NewFFprobe("ffprobe", time.Second)
	probe.Run = func(_ context.Context, binary string, args ...string) ([]byte, error) {
		assert.Equal(t, "ffprobe", binary)
		assert.Equal(t, "/tmp/clip.mp4", args[len(args)-1])
		return []byte(`{"format":{"duration":"12.480000"}}`), nil
	}

	seconds, err := probe.Duration(context.Background(), "/tmp/clip.mp4")
	require.NoError(t, err)
	assert.InDelta(t, 12.48, seconds, 1e-9)

	probe.Run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`{"format":{}}`), nil
	}
	_, err = probe.Duration(context.Background(), "/tmp/clip.mp4")
	assert.Error(t, err)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)

	asset, err := store.Upload(context.Background(), writeTemp(t, "avatar.jpg", "jpeg"))
	require.NoError(t, err)
	assert.True(t, store.Has(asset.Ref))

	require.NoError(t, store.Delete(context.Background(), asset.Ref))
	require.NoError(t, store.Delete(context.Background(), asset.Ref))
	assert.False(t, store.Has(asset.Ref))
	assert.Zero(t, store.Len())
}

type recorderStub struct {
	mu       sync.Mutex
	failures int
}

func (r *recorderStub) BlobDeleteFailed(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *recorderStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

type failingRemover struct{}

func (failingRemover) Delete(context.Context, string) error { return errors.New("unavailable") }

func TestReaperDrainsOnShutdown(t *testing.T) {
	store := NewMemoryStore(nil)
	store.Put("a", []byte("1"))
	store.Put("b", []byte("2"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reaper := NewReaper(store, nil, ReaperConfig{QueueSize: 4, Workers: 2}, logger)

	require.NoError(t, reaper.Delete(context.Background(), "a"))
	require.NoError(t, reaper.Delete(context.Background(), "b"))
	require.NoError(t, reaper.Delete(context.Background(), ""))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reaper.Shutdown(ctx))

	assert.Zero(t, store.Len())
	assert.ErrorIs(t, reaper.Delete(context.Background(), "c"), ErrClosed)
}

func TestReaperRecordsFailures(t *testing.T) {
	recorder := &recorderStub{}
	reaper := NewReaper(failingRemover{}, recorder, ReaperConfig{Workers: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, reaper.Delete(context.Background(), "x"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, reaper.Shutdown(ctx))

	assert.Equal(t, 1, recorder.count())
}
