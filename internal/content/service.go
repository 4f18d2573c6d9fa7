// Package content implements the mutations that create and edit accounts,
// videos, comments, tweets and playlists. Deletions live in package cascade.
package content

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/blobs"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
)

// Service owns content mutations.
type Service struct {
	Accounts  repositories.AccountRepository
	Videos    repositories.VideoRepository
	Comments  repositories.CommentRepository
	Tweets    repositories.TweetRepository
	Playlists repositories.PlaylistRepository
	// Blobs receives uploads. Compensating deletes after a failed write
	// also go here so they finish before the call returns.
	Blobs blobs.Store
	// Cleanup removes superseded blobs, such as a replaced thumbnail. It
	// defaults to Blobs.
	Cleanup blobs.Remover
	Metrics blobs.FailureRecorder
	NowFunc func() time.Time
	IDFunc  func() string
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.IDFunc != nil {
		return s.IDFunc()
	}
	return uuid.NewString()
}

// storeError classifies a repository failure for entity id.
func storeError(op, entity, id string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound(op, entity, id)
	case errors.Is(err, repositories.ErrConflict):
		return &apperrors.Error{Kind: apperrors.KindConflict, Op: op, Entity: entity, ID: id, Err: err}
	case errors.Is(err, repositories.ErrConstraint):
		return &apperrors.Error{Kind: apperrors.KindInvalid, Op: op, Entity: entity, ID: id, Err: err}
	default:
		return &apperrors.Error{Kind: apperrors.KindStorageFailed, Op: op, Entity: entity, ID: id, Err: err}
	}
}

func (s *Service) requireAccount(ctx context.Context, op, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Invalid(op, "actor is required")
	}
	if _, err := s.Accounts.FindByID(ctx, id); err != nil {
		return storeError(op, "account", id, err)
	}
	return nil
}

func (s *Service) upload(ctx context.Context, op, path string) (blobs.Asset, error) {
	if s.Blobs == nil {
		return blobs.Asset{}, &apperrors.Error{Kind: apperrors.KindUploadFailed, Op: op, Message: "blob store unavailable"}
	}
	asset, err := s.Blobs.Upload(ctx, path)
	if err != nil {
		return blobs.Asset{}, &apperrors.Error{Kind: apperrors.KindUploadFailed, Op: op, Err: err}
	}
	return asset, nil
}

// discard removes refs that were uploaded for a write that did not happen.
func (s *Service) discard(ctx context.Context, op string, refs ...string) {
	if s.Blobs == nil {
		return
	}
	s.removeWith(ctx, s.Blobs, op, refs)
}

// release removes refs that are no longer referenced by any row.
func (s *Service) release(ctx context.Context, op string, refs ...string) {
	remover := s.Cleanup
	if remover == nil {
		remover = s.Blobs
	}
	if remover == nil {
		return
	}
	s.removeWith(ctx, remover, op, refs)
}

func (s *Service) removeWith(ctx context.Context, remover blobs.Remover, op string, refs []string) {
	logger := logging.FromContext(ctx)
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := remover.Delete(ctx, ref); err != nil {
			logger.Warn("blob cleanup failed", "op", op, "ref", ref, "error", err)
			if s.Metrics != nil {
				s.Metrics.BlobDeleteFailed("content")
			}
		}
	}
}

func requireText(op, field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Invalid(op, field+" is required")
	}
	return value, nil
}
