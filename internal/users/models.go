package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
)

var (
	ErrNotFound      = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrUsernameTaken = fmt.Errorf("users: username already exists: %w", apperr.ErrBusinessRule)
	ErrEmailTaken    = fmt.Errorf("users: email already exists: %w", apperr.ErrBusinessRule)
	ErrInvalidInput  = fmt.Errorf("users: invalid input: %w", apperr.ErrBusinessRule)
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the stored account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the client-supplied form for create and update.
type Input struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	Active    *bool  `json:"active"`
}

func (in Input) validate(creating bool) error {
	if creating && strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if creating && in.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidInput, err)
	}
	switch in.Role {
	case "", RoleUser, RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	return nil
}
