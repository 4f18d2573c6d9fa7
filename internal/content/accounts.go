package content

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// RegisterInput describes a new account. AvatarPath and CoverImagePath point
// at local files to upload and may be empty.
type RegisterInput struct {
	Username       string
	Email          string
	FullName       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// Register creates an account. Username and email are stored lower-cased and
// must be unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.Account, error) {
	const op = "content.Register"
	logger := logging.FromContext(ctx)

	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || in.Password == "" {
		return models.Account{}, apperrors.Invalid(op, "username, email, full name and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.Account{}, apperrors.Invalid(op, "invalid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return models.Account{}, apperrors.Invalid(op, "password must be at least 8 characters")
	}

	if _, err := s.Accounts.FindByUsername(ctx, username); err == nil {
		return models.Account{}, &apperrors.Error{Kind: apperrors.KindConflict, Op: op, Entity: "account", ID: username}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.Account{}, storeError(op, "account", username, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, apperrors.E(apperrors.KindUnknown, op, err)
	}

	var avatar, cover string
	if in.AvatarPath != "" {
		asset, err := s.upload(ctx, op, in.AvatarPath)
		if err != nil {
			return models.Account{}, err
		}
		avatar = asset.Ref
	}
	if in.CoverImagePath != "" {
		asset, err := s.upload(ctx, op, in.CoverImagePath)
		if err != nil {
			s.discard(ctx, op, avatar)
			return models.Account{}, err
		}
		cover = asset.Ref
	}

	now := s.now()
	account := models.Account{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hashed),
		Avatar:       avatar,
		CoverImage:   cover,
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Accounts.Create(ctx, account); err != nil {
		s.discard(ctx, op, avatar, cover)
		return models.Account{}, storeError(op, "account", username, err)
	}

	logger.Info("account registered", "accountId", account.ID, "username", username)
	return account, nil
}

// UpdateAccountInput carries optional profile changes. Nil fields are left
// untouched.
type UpdateAccountInput struct {
	FullName *string
	Email    *string
}

// UpdateAccount edits the full name and email of actorID's account. The email
// is stored lower-cased and must not belong to another account.
func (s *Service) UpdateAccount(ctx context.Context, actorID string, in UpdateAccountInput) (models.Account, error) {
	const op = "content.UpdateAccount"

	if in.FullName == nil && in.Email == nil {
		return models.Account{}, apperrors.Invalid(op, "full name or email is required")
	}
	account, err := s.Accounts.FindByID(ctx, actorID)
	if err != nil {
		return models.Account{}, storeError(op, "account", actorID, err)
	}

	if in.FullName != nil {
		fullName, err := requireText(op, "full name", *in.FullName)
		if err != nil {
			return models.Account{}, err
		}
		account.FullName = fullName
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return models.Account{}, apperrors.Invalid(op, "invalid email address")
		}
		account.Email = email
	}

	account.UpdatedAt = s.now()
	if err := s.Accounts.Update(ctx, account); err != nil {
		return models.Account{}, storeError(op, "account", actorID, err)
	}

	logging.FromContext(ctx).Info("account updated", "accountId", actorID)
	return account, nil
}

// UpdateAvatar uploads the file at path and makes it actorID's avatar. The
// previous avatar blob is removed once the account points at the new one.
func (s *Service) UpdateAvatar(ctx context.Context, actorID, path string) (models.Account, error) {
	return s.replaceImage(ctx, "content.UpdateAvatar", "avatar", actorID, path, func(a *models.Account) *string { return &a.Avatar })
}

// UpdateCoverImage is UpdateAvatar for the channel cover image.
func (s *Service) UpdateCoverImage(ctx context.Context, actorID, path string) (models.Account, error) {
	return s.replaceImage(ctx, "content.UpdateCoverImage", "cover image", actorID, path, func(a *models.Account) *string { return &a.CoverImage })
}

func (s *Service) replaceImage(ctx context.Context, op, label, actorID, path string, field func(*models.Account) *string) (models.Account, error) {
	if path == "" {
		return models.Account{}, apperrors.Invalid(op, label+" file is required")
	}
	account, err := s.Accounts.FindByID(ctx, actorID)
	if err != nil {
		return models.Account{}, storeError(op, "account", actorID, err)
	}

	asset, err := s.upload(ctx, op, path)
	if err != nil {
		return models.Account{}, err
	}
	ref := field(&account)
	previous := *ref
	*ref = asset.Ref

	account.UpdatedAt = s.now()
	if err := s.Accounts.Update(ctx, account); err != nil {
		s.discard(ctx, op, asset.Ref)
		return models.Account{}, storeError(op, "account", actorID, err)
	}

	s.release(ctx, op, previous)
	return account, nil
}

// ChangePassword replaces actorID's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, actorID, oldPassword, newPassword string) error {
	const op = "content.ChangePassword"

	if oldPassword == "" || newPassword == "" {
		return apperrors.Invalid(op, "old and new password are required")
	}
	if len(newPassword) < MinPasswordLength {
		return apperrors.Invalid(op, "password must be at least 8 characters")
	}
	account, err := s.Accounts.FindByID(ctx, actorID)
	if err != nil {
		return storeError(op, "account", actorID, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.Invalid(op, "invalid old password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.E(apperrors.KindUnknown, op, err)
	}
	account.PasswordHash = string(hashed)
	account.UpdatedAt = s.now()
	if err := s.Accounts.Update(ctx, account); err != nil {
		return storeError(op, "account", actorID, err)
	}

	logging.FromContext(ctx).Info("password changed", "accountId", actorID)
	return nil
}
