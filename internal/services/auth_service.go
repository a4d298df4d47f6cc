package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/getdone/api/internal/constants"
	"github.com/getdone/api/internal/models"
	"github.com/getdone/api/internal/repository"
)

var (
	ErrEmailTaken           = errors.New("email already in use")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserDataMismatch     = errors.New("first and/or last name do not match")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidProfileField  = errors.New("field cannot be updated")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrMissingFields        = errors.New("all fields are required")
	ErrValueRequired        = errors.New("value is required")
)

// AuthService handles registration, login, and profile maintenance.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a new user with a hashed password. Emails are stored
// lowercased; duplicates are rejected.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, ErrMissingFields
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		// The unique index is the backstop against a concurrent register
		// with the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResetPassword replaces the password of the account registered under email.
func (s *AuthService) ResetPassword(email, newPassword string) error {
	email = NormalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.userRepo.UpdatePasswordByEmail(email, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ValidateUserData checks that the first and last name match the account
// registered under email. Used before allowing a password reset.
func (s *AuthService) ValidateUserData(firstName, lastName, email string) error {
	user, err := s.userRepo.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FirstName != firstName || user.LastName != lastName {
		return ErrUserDataMismatch
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// profileColumns maps the updatable profile fields onto their columns.
var profileColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
}

// UpdateProfileField updates a single allowed profile field.
func (s *AuthService) UpdateProfileField(userID uint64, field, value string) error {
	column, ok := profileColumns[field]
	if !ok {
		return ErrInvalidProfileField
	}
	if strings.TrimSpace(value) == "" {
		return ErrValueRequired
	}

	if err := s.userRepo.UpdateField(userID, column, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	return nil
}

// ChangePassword verifies the current password and stores a new one.
func (s *AuthService) ChangePassword(userID uint64, currentPassword, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongCurrentPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	if err := s.userRepo.UpdatePassword(userID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
