package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classifyWriteError maps constraint violations on INSERT/UPDATE to repository errors.
func classifyWriteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		case pgCheckViolation:
			return ErrConstraint
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

// classifyDeleteError maps a foreign key violation on DELETE to ErrReferenced.
func classifyDeleteError(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%s: %w", action, ErrReferenced)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// execCount runs a statement and returns the number of rows it touched.
func execCount(ctx context.Context, pool db.Pool, action, query string, args ...any) (int64, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyDeleteError(err, action)
	}
	return tag.RowsAffected(), nil
}

// countRows runs a SELECT count(*) style query.
func countRows(ctx context.Context, pool db.Pool, action, query string, args ...any) (int64, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", action, err)
	}
	return n, nil
}

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, watch_history, created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		account models.Account
		refresh sql.NullString
	)
	if err := row.Scan(&account.ID, &account.Username, &account.Email, &account.FullName, &account.PasswordHash,
		&account.Avatar, &account.CoverImage, &refresh, &account.WatchHistory, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return models.Account{}, err
	}
	if refresh.Valid {
		token := refresh.String
		account.RefreshToken = &token
	}
	if account.WatchHistory == nil {
		account.WatchHistory = []string{}
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	history := account.WatchHistory
	if history == nil {
		history = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, watch_history, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, account.ID, account.Username, account.Email, account.FullName, account.PasswordHash, account.Avatar,
		account.CoverImage, account.RefreshToken, history, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert account")
	}

	return nil
}

// FindByID fetches an account by identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, "select account by id", `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByUsername fetches an account by its unique username.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	return r.findOne(ctx, "select account by username", `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, action, query string, arg string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	account, err := scanAccount(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("%s: %w", action, err)
	}
	return account, nil
}

// FindByIDs fetches every account whose id is in ids. Missing ids are skipped.
func (r *PostgresAccountRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query accounts by ids: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update writes the mutable profile columns of an account.
func (r *PostgresAccountRepository) Update(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET email = $2, full_name = $3, password_hash = $4, avatar = $5, cover_image = $6, updated_at = $7
        WHERE id = $1
    `, account.ID, account.Email, account.FullName, account.PasswordHash, account.Avatar, account.CoverImage, account.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "update account")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordWatch moves videoID to the front of the account's watch history. A
// missing account or video yields ErrNotFound.
func (r *PostgresAccountRepository) RecordWatch(ctx context.Context, accountID, videoID string) error {
	n, err := execCount(ctx, r.pool, "update watch history", `
        UPDATE accounts
        SET watch_history = array_prepend($2::TEXT, array_remove(watch_history, $2::TEXT)),
            updated_at = $3
        WHERE id = $1 AND EXISTS (SELECT 1 FROM videos WHERE id = $2::TEXT)
    `, accountID, videoID, time.Now().UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveFromWatchHistories pulls videoID from every account's watch history.
func (r *PostgresAccountRepository) RemoveFromWatchHistories(ctx context.Context, videoID string) (int64, error) {
	return execCount(ctx, r.pool, "remove video from watch histories", `
        UPDATE accounts
        SET watch_history = array_remove(watch_history, $1::TEXT)
        WHERE $1::TEXT = ANY(watch_history)
    `, videoID)
}

// Delete removes an account row.
func (r *PostgresAccountRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.pool, "delete account", `DELETE FROM accounts WHERE id = $1`, id)
	return n > 0, err
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
