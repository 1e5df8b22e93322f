package domain

import "time"

// UserRole distinguishes administrators from regular department members.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// User is an account of the department. Active stays false until the email
// address has been verified.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	FullName     *string
	Phone        *string
	BankName     *string
	BankNumber   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the full name, or an empty string when unset.
func (u *User) DisplayName() string {
	if u == nil || u.FullName == nil {
		return ""
	}
	return *u.FullName
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserSnapshot is the subset of a user embedded into participation rows.
type UserSnapshot struct {
	ID       int64
	FullName string
}
