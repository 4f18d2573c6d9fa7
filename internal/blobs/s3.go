package blobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage implements Store backed by an S3-compatible service.
type S3Storage struct {
	uploader objectUploader
	deleter  objectDeleter
	prober   Prober
	bucket   string
	baseURL  string
	prefix   string
}

// NewS3Storage configures a client targeting the provided object store.
// prober may be nil, in which case video durations are reported as zero.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig, prober Prober) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(uploader, client, prober, cfg), nil
}

func newS3Storage(uploader objectUploader, deleter objectDeleter, prober Prober, cfg config.ObjectStoreConfig) *S3Storage {
	return &S3Storage{
		uploader: uploader,
		deleter:  deleter,
		prober:   prober,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		prefix:   strings.Trim(cfg.KeyPrefix, "/"),
	}
}

// Upload stores the file at localPath under a fresh key and returns its public
// location. The local file is removed afterwards.
func (s *S3Storage) Upload(ctx context.Context, localPath string) (Asset, error) {
	if strings.TrimSpace(localPath) == "" {
		return Asset{}, ErrEmptyPath
	}
	defer removeLocal(ctx, localPath)

	var asset Asset
	if s.prober != nil && isVideo(localPath) {
		duration, err := s.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("probe video duration", "path", localPath, "error", err)
		}
		asset.Duration = duration
	}

	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, fmt.Errorf("open upload %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(s.prefix, uuid.NewString()+strings.ToLower(filepath.Ext(localPath)))

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	asset.Ref = key
	if s.baseURL != "" {
		asset.Ref = fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return asset, nil
}

// Delete removes the object behind ref. Missing objects are not an error.
func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	key := s.keyFromRef(ref)
	if key == "" {
		return nil
	}

	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil
		}
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) keyFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if s.baseURL != "" {
		ref = strings.TrimPrefix(ref, s.baseURL)
	}
	return strings.TrimLeft(ref, "/")
}

func isMissingObject(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func removeLocal(ctx context.Context, localPath string) {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove local upload", slog.String("path", localPath), slog.Any("error", err))
	}
}

var _ Store = (*S3Storage)(nil)
