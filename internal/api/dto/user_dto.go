package dto

import (
	"time"

	"github.com/deptevents/event-registration/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResendVerificationRequest asks for a new verification link.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes the reset flow.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest changes the caller's password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfileRequest carries optional profile fields.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name"`
	Phone      *string `json:"phone"`
	BankName   *string `json:"name_bank"`
	BankNumber *string `json:"bank_number"`
}

// AdminUpdateUserRequest lets admins change role and status too.
type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Role   *string `json:"role"`
	Status *bool   `json:"status"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Status     bool      `json:"status"`
	FullName   *string   `json:"full_name"`
	Phone      *string   `json:"phone"`
	BankName   *string   `json:"name_bank"`
	BankNumber *string   `json:"bank_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewUserResponse maps a user. The password hash is never exposed.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		Status:     user.Active,
		FullName:   user.FullName,
		Phone:      user.Phone,
		BankName:   user.BankName,
		BankNumber: user.BankNumber,
		CreatedAt:  user.CreatedAt,
	}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	result := make([]UserResponse, 0, len(users))
	for i := range users {
		result = append(result, NewUserResponse(&users[i]))
	}
	return result
}
