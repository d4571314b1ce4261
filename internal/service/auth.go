package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/auth"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type authService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	hasher     auth.Hasher
	tokenBytes int
	log        zerolog.Logger
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, hasher auth.Hasher, tokenBytes int, logger zerolog.Logger) AuthService {
	l := logger.With().Str("module", "service").Str("component", "auth").Logger()
	return &authService{users: users, tokens: tokens, hasher: hasher, tokenBytes: tokenBytes, log: l}
}

// Login returns the user's existing token or issues a new one.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	if err := validateStruct(LoginInput{Email: email, Password: password}); err != nil {
		return "", err
	}
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := s.hasher.Compare(u.Password, password); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			s.log.Debug().Int64("user_id", u.ID).Msg("login with wrong password")
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	existing, err := s.tokens.GetByUser(ctx, u.ID)
	if err == nil {
		return existing.Token, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	raw, err := auth.GenerateToken(s.tokenBytes)
	if err != nil {
		return "", err
	}
	created, err := s.tokens.Create(ctx, model.AuthToken{Token: raw, UserID: u.ID})
	if errors.Is(err, repository.ErrAlreadyExists) {
		// a concurrent login won the insert
		existing, err = s.tokens.GetByUser(ctx, u.ID)
		return existing.Token, err
	}
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", u.ID).Msg("create token failed")
		return "", err
	}
	s.log.Info().Int64("user_id", u.ID).Msg("token issued")
	return created.Token, nil
}

func (s *authService) Logout(ctx context.Context, user model.User) error {
	if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("delete token failed")
		return err
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrUnauthorized
	}
	u, err := s.tokens.UserByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUnauthorized
	}
	return u, err
}
