// Package service contains business logic that spans multiple repositories.
package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput carries the fields accepted at account creation.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// ProfileUpdate carries the editable profile fields. Empty strings leave the
// current value unchanged. Password is the user's current password, required
// to authorize the edit.
type ProfileUpdate struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	Password       string
}

// UserService implements account lifecycle operations.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Signup validates input, hashes the password and creates the account.
// Missing image URLs get the defaults.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		Password:       string(hashed),
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks username and password. Returns (nil, nil) when the
// credentials do not match any account, so callers cannot distinguish a
// missing user from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a hash comparison anyway to keep timing uniform.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0XhS1uZ5b5vY5uG5uG5uG5uG5uG"), []byte(password))
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil
	}
	return user, nil
}

// UpdateProfile re-authenticates with the supplied password and applies the
// non-empty field overrides. All-or-nothing: a wrong password changes
// nothing.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(update.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Password is not correct. Please try again.")
	}

	if update.Username != "" {
		if err := validation.ValidateUsername(update.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Username = update.Username
	}
	if update.Email != "" {
		if err := validation.ValidateEmail(update.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Email = update.Email
	}
	if update.ImageURL != "" {
		user.ImageURL = update.ImageURL
	}
	if update.HeaderImageURL != "" {
		user.HeaderImageURL = update.HeaderImageURL
	}
	if update.Bio != "" {
		user.Bio = update.Bio
	}
	if update.Location != "" {
		user.Location = update.Location
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and everything attached to them.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.users.Delete(ctx, userID)
}
