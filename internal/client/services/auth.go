// Package services contains the application services behind the CLI: local
// accounts, bookmarks and presets on top of the record store, and the node
// flows built from the protocol package.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/auth"
	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/users"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/cryptox"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
)

type SignupRequest struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required"`
	FirstName string `validate:"max=100"`
	LastName  string `validate:"max=100"`
}

// Session is the result of a successful login.
type Session struct {
	User  models.User
	Token string
}

// AuthService manages local accounts.
//
// Contract:
//   - Signup: create an account; a taken email is common.ErrConflict.
//   - Login: check credentials; any mismatch is common.ErrUnauthorized.
//   - GetUser / UserFromToken: look an account up by id or session token.
//   - Logout: sessions are stateless tokens, so this only validates input.
//
// Returned users never carry the password hash.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UserFromToken(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	users     users.Repository
	secretKey []byte
	tokenTTL  time.Duration
	log       logging.Logger
}

func NewAuthService(repo users.Repository, secretKey []byte, tokenTTL time.Duration, log logging.Logger) AuthService {
	return &authService{users: repo, secretKey: secretKey, tokenTTL: tokenTTL, log: log}
}

func (a *authService) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	u, err := a.users.Create(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: cryptox.HashPassword([]byte(req.Password)),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		return nil, err
	}

	a.log.Info(ctx, "user signed up", "user_id", u.ID)
	pub := u.Public()
	return &pub, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	ok, err := cryptox.VerifyPassword(u.PasswordHash, []byte(password))
	if err != nil {
		a.log.Error(ctx, "stored password hash unreadable", "user_id", u.ID, "error", err)
		return nil, common.ErrUnauthorized
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	token, err := auth.GenerateToken(u.ID, a.secretKey, a.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	a.log.Info(ctx, "user logged in", "user_id", u.ID)
	return &Session{User: u.Public(), Token: token}, nil
}

func (a *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (a *authService) UserFromToken(ctx context.Context, token string) (*models.User, error) {
	id, err := auth.UserIDFromToken(token, a.secretKey)
	if err != nil {
		return nil, err
	}
	u, err := a.GetUser(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidToken
	}
	return u, err
}

func (a *authService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return common.ErrInvalidToken
	}
	return nil
}
