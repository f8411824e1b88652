package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pricewatch/backend/internal/model"
	"github.com/pricewatch/backend/internal/repository"
)

// Service-level errors for authentication and user management.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrCannotDeleteAdmin  = errors.New("cannot delete admin user")
)

// UserRepositoryInterface defines the contract for user data access.
// Implementations must be safe for concurrent use.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// UserService handles registration, login, profiles and admin user management.
type UserService struct {
	repo   UserRepositoryInterface
	tokens *TokenService
}

// NewUserService creates a new UserService.
func NewUserService(repo UserRepositoryInterface, tokens *TokenService) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// UpdateProfileInput changes the caller's own profile. Nil fields are kept.
type UpdateProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

// UpdateUserInput is the admin edit of any user. Nil fields are kept.
type UpdateUserInput struct {
	Name    *string `json:"name" validate:"omitempty,max=255"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	IsAdmin *bool   `json:"isAdmin"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and signs a token for it.
// Returns ErrEmailTaken if the email is already registered.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	user, err := s.create(ctx, input, false)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// EnsureAdmin returns the admin account for email, creating it or promoting
// an existing user as needed.
func (s *UserService) EnsureAdmin(ctx context.Context, input RegisterInput) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return s.create(ctx, input, true)
	case err != nil:
		return nil, fmt.Errorf("fetching user by email: %w", err)
	case user.IsAdmin:
		return user, nil
	}

	user.IsAdmin = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("promoting user %s: %w", user.ID, err)
	}
	return user, nil
}

func (s *UserService) create(ctx context.Context, input RegisterInput, admin bool) (*model.User, error) {
	email := normalizeEmail(input.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      admin,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login authenticates a user with email and password.
// Returns ErrInvalidCredentials if the credentials are incorrect.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fetching user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// GetByID retrieves a user by their ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return user, nil
}

// UpdateProfile applies the caller's own profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s for update: %w", userID, err)
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && *input.Email != "" {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	return s.save(ctx, user)
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// UpdateUser applies an admin edit to any user.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching user %s for update: %w", id, err)
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && *input.Email != "" {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}

	return s.save(ctx, user)
}

func (s *UserService) save(ctx context.Context, user *model.User) (*model.User, error) {
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("updating user %s: %w", user.ID, err)
	}
	return user, nil
}

// Delete removes a user. Admin accounts cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching user %s for delete: %w", id, err)
	}
	if user.IsAdmin {
		return ErrCannotDeleteAdmin
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	return nil
}
