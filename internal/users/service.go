package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-shop-services/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store Store
	cost  int
}

func NewService(store Store, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: bcryptCost}
}

func (s *Service) All(ctx context.Context) ([]User, error) { return s.store.List(ctx) }

func (s *Service) Get(ctx context.Context, id int64) (*User, error) { return s.store.Get(ctx, id) }

func (s *Service) ByUsername(ctx context.Context, username string) (*User, error) {
	return s.store.GetByUsername(ctx, username)
}

func (s *Service) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetByEmail(ctx, email)
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return exists(s.store.GetByUsername(ctx, username))
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(s.store.GetByEmail(ctx, email))
}

func exists(_ *User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) Create(ctx context.Context, in Input) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.validate(true); err != nil {
		return nil, err
	}
	if ok, err := s.UsernameExists(ctx, in.Username); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrUsernameTaken
	}
	if ok, err := s.EmailExists(ctx, in.Email); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrEmailTaken
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         in.Role,
		Active:       in.Active == nil || *in.Active,
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user_created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Update replaces the profile fields. Username is immutable; the password is
// re-hashed only when a new one is supplied.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*User, error) {
	in.Email = strings.TrimSpace(in.Email)
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Phone = in.Phone
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if in.Password != "" {
		if u.PasswordHash, err = s.hash(in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", zap.Int64("user_id", id))
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (s *Service) CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("%w: password: %v", ErrInvalidInput, err)
	}
	return string(b), nil
}
