package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/auth"
	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/store"
	"github.com/kjstillabower/solawi/internal/validation"
)

// LoginResult is returned to a successfully authenticated user.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	ID          int64  `json:"id"`
}

// Authenticate checks email and password. Unknown email and wrong password both
// return auth.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, auth.RejectUnknownUser(password)
	}
	if err != nil {
		return models.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Login authenticates the user and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			observability.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		}
		return LoginResult{}, err
	}
	token, err := s.tokens.Issue(u.Email)
	if err != nil {
		return LoginResult{}, err
	}
	observability.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return LoginResult{AccessToken: token, ID: u.ID}, nil
}

// UserForToken resolves a bearer token to its user. Tokens of deleted users are invalid.
func (s *Service) UserForToken(ctx context.Context, raw string) (models.User, error) {
	email, err := s.tokens.Verify(raw)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, auth.ErrInvalidToken
	}
	return u, err
}

// ListUsers returns id and email of every user.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser adds a bookkeeper with an initial password. The user must change it
// before the API accepts their token.
func (s *Service) CreateUser(ctx context.Context, email, password string) (models.User, error) {
	addr, err := validation.ValidateEmail(email)
	if err != nil {
		return models.User{}, invalid(err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.User{}, invalid(err)
	}
	if _, err := s.store.GetUserByEmail(ctx, addr); err == nil {
		return models.User{}, invalidf("user %s already exists", addr)
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	id, err := s.store.CreateUser(ctx, addr, hash)
	if err != nil {
		return models.User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// ChangePassword sets a new password for targetID. Users may only change their own.
func (s *Service) ChangePassword(ctx context.Context, actor models.User, targetID int64, password string) (models.User, error) {
	if actor.ID != targetID {
		return models.User{}, fmt.Errorf("change password of user %d: %w", targetID, ErrForbidden)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return models.User{}, invalid(err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.store.SetPassword(ctx, targetID, hash, s.now().UTC()); err != nil {
		return models.User{}, err
	}
	observability.LoggerFromContext(ctx).Info("password changed", zap.Int64("user_id", targetID))
	return s.store.GetUser(ctx, targetID)
}
