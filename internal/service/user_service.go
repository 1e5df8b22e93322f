package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/repository"
)

var phonePattern = regexp.MustCompile(`^0\d{9}$`)

// UserService manages account profiles.
type UserService struct {
	users repository.UserRepository
}

// ProfileInput carries optional profile changes. Nil fields are left as is;
// an empty string clears the field.
type ProfileInput struct {
	FullName   *string
	Phone      *string
	BankName   *string
	BankNumber *string
}

// AdminUserInput extends ProfileInput with fields only admins may change.
type AdminUserInput struct {
	ProfileInput
	Role   *domain.UserRole
	Active *bool
}

// UserListFilters define listing parameters.
type UserListFilters struct {
	Role   *domain.UserRole
	Active *bool
	Search *string
	Limit  int
	Offset int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetMe returns the caller's account.
func (s *UserService) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapErr(domain.ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the caller's own profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input ProfileInput) (*domain.User, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(user, input); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns accounts for the admin console.
func (s *UserService) List(ctx context.Context, filter UserListFilters) ([]domain.User, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, validationErr("role", "unknown role")
	}
	return s.users.List(ctx, repository.UserFilter{
		Role:   filter.Role,
		Active: filter.Active,
		Search: filter.Search,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// AdminUpdate lets an admin change role, status and profile of any account.
func (s *UserService) AdminUpdate(ctx context.Context, userID int64, input AdminUserInput) (*domain.User, error) {
	user, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, validationErr("role", "unknown role")
		}
		user.Role = *input.Role
	}
	if input.Active != nil {
		user.Active = *input.Active
	}
	if err := applyProfile(user, input.ProfileInput); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func applyProfile(user *domain.User, input ProfileInput) error {
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			return validationErr("phone", "phone must be 10 digits starting with 0")
		}
		user.Phone = optional(phone)
	}
	if input.FullName != nil {
		user.FullName = optional(strings.TrimSpace(*input.FullName))
	}
	if input.BankName != nil {
		user.BankName = optional(strings.TrimSpace(*input.BankName))
	}
	if input.BankNumber != nil {
		user.BankNumber = optional(strings.TrimSpace(*input.BankNumber))
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
