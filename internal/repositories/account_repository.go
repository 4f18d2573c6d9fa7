package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Account, error)
	// Update writes the profile fields, credentials and image refs of an
	// existing account. An email taken by another account yields ErrConflict.
	Update(ctx context.Context, account models.Account) error
	// RecordWatch moves videoID to the front of the account's watch history.
	RecordWatch(ctx context.Context, accountID, videoID string) error
	// RemoveFromWatchHistories pulls videoID out of every watch history and
	// reports how many accounts were touched.
	RemoveFromWatchHistories(ctx context.Context, videoID string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
}
