package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"pixcards/internal/domain"
	"pixcards/internal/repos"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// Identity resolves a session to the caller the ledger acts for.
func (s *AuthService) Identity(ctx context.Context, sid string) (domain.Identity, error) {
	if sid == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: u.ID, Role: u.Role}, nil
}
