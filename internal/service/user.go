package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/auth"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type userService struct {
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	recipes repository.RecipeRepository
	tx      repository.TxManager
	hasher  auth.Hasher
	log     zerolog.Logger
}

func NewUserService(users repository.UserRepository, subs repository.SubscriptionRepository, recipes repository.RecipeRepository,
	tx repository.TxManager, hasher auth.Hasher, logger zerolog.Logger) UserService {
	l := logger.With().Str("module", "service").Str("component", "user").Logger()
	return &userService{users: users, subs: subs, recipes: recipes, tx: tx, hasher: hasher, log: l}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (model.UserResponse, error) {
	start := time.Now()
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		s.log.Debug().Err(err).Interface("field_errors", FieldErrors(err)).Msg("registration validation failed")
		return model.UserResponse{}, err
	}

	emailTaken, usernameTaken, err := s.users.Taken(ctx, in.Email, in.Username)
	if err != nil {
		return model.UserResponse{}, err
	}
	if err := takenErrors(emailTaken, usernameTaken); err != nil {
		return model.UserResponse{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.UserResponse{}, passwordError("password", err)
	}
	u, err := s.users.Create(ctx, model.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		// lost a race against a concurrent sign-up; the winner is committed now
		emailTaken, usernameTaken, terr := s.users.Taken(ctx, in.Email, in.Username)
		if terr != nil {
			return model.UserResponse{}, terr
		}
		if !emailTaken && !usernameTaken {
			return model.UserResponse{}, invalidField("email", "is already registered")
		}
		return model.UserResponse{}, takenErrors(emailTaken, usernameTaken)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("create user failed")
		return model.UserResponse{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("user_id", u.ID).Msg("user registered")
	return model.NewUserResponse(u, false), nil
}

// passwordError reports a password bcrypt cannot take as a field error.
func passwordError(field string, err error) error {
	if errors.Is(err, auth.ErrTooLong) {
		return invalidField(field, fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return err
}

func takenErrors(email, username bool) error {
	var fe []FieldError
	if email {
		fe = append(fe, FieldError{Field: "email", Message: "is already registered"})
	}
	if username {
		fe = append(fe, FieldError{Field: "username", Message: "is already taken"})
	}
	return NewInvalidInput(fe...)
}

func (s *userService) Get(ctx context.Context, viewer *model.User, id int64) (model.UserResponse, error) {
	if id <= 0 {
		return model.UserResponse{}, invalidField("id", "must be > 0")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, err
	}
	subscribed, err := s.subscribed(ctx, viewer, []int64{u.ID})
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u, subscribed[u.ID]), nil
}

func (s *userService) List(ctx context.Context, viewer *model.User, q pagination.Query) (pagination.Envelope[model.UserResponse], error) {
	src := pagination.SourceFunc[model.User]{
		CountFn: s.users.Count,
		FetchFn: func(ctx context.Context, limit, offset int) ([]model.User, error) {
			return s.users.List(ctx, repository.Window{Limit: limit, Offset: offset})
		},
	}
	var out pagination.Envelope[model.UserResponse]
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		env, err := pagination.Run(ctx, q, src)
		if err != nil {
			return err
		}
		out, err = pagination.Map(env, func(users []model.User) ([]model.UserResponse, error) {
			subscribed, err := s.subscribed(ctx, viewer, userIDs(users))
			if err != nil {
				return nil, err
			}
			res := make([]model.UserResponse, len(users))
			for i, u := range users {
				res[i] = model.NewUserResponse(u, subscribed[u.ID])
			}
			return res, nil
		})
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int("page", q.Page).Int("limit", q.Limit).Msg("list users failed")
		return pagination.Envelope[model.UserResponse]{}, err
	}
	return out, nil
}

func (s *userService) SetPassword(ctx context.Context, user model.User, in SetPasswordInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if err := s.hasher.Compare(user.Password, in.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return invalidField("current_password", "is incorrect")
		}
		return err
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return passwordError("new_password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("update password failed")
		return err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *userService) SetAvatar(ctx context.Context, user model.User, in AvatarInput) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	if err := s.users.UpdateAvatar(ctx, user.ID, &in.Avatar); err != nil {
		return "", err
	}
	return in.Avatar, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, user model.User) error {
	return s.users.UpdateAvatar(ctx, user.ID, nil)
}

func (s *userService) Subscriptions(ctx context.Context, user model.User, q pagination.Query, recipesLimit int) (pagination.Envelope[model.UserWithRecipes], error) {
	src := pagination.SourceFunc[model.User]{
		CountFn: func(ctx context.Context) (int, error) { return s.subs.CountFollowing(ctx, user.ID) },
		FetchFn: func(ctx context.Context, limit, offset int) ([]model.User, error) {
			return s.subs.ListFollowing(ctx, user.ID, repository.Window{Limit: limit, Offset: offset})
		},
	}
	var out pagination.Envelope[model.UserWithRecipes]
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		env, err := pagination.Run(ctx, q, src)
		if err != nil {
			return err
		}
		out, err = pagination.Map(env, func(authors []model.User) ([]model.UserWithRecipes, error) {
			return s.withRecipes(ctx, authors, recipesLimit)
		})
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("list subscriptions failed")
		return pagination.Envelope[model.UserWithRecipes]{}, err
	}
	return out, nil
}

func (s *userService) Subscribe(ctx context.Context, user model.User, authorID int64, recipesLimit int) (model.UserWithRecipes, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return model.UserWithRecipes{}, err
	}
	if author.ID == user.ID {
		return model.UserWithRecipes{}, invalidField("id", "cannot subscribe to yourself")
	}
	if err := s.subs.Subscribe(ctx, user.ID, author.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return model.UserWithRecipes{}, invalidField("id", "already subscribed")
		}
		return model.UserWithRecipes{}, err
	}
	res, err := s.withRecipes(ctx, []model.User{author}, recipesLimit)
	if err != nil {
		return model.UserWithRecipes{}, err
	}
	s.log.Info().Int64("user_id", user.ID).Int64("author_id", author.ID).Msg("subscribed")
	return res[0], nil
}

func (s *userService) Unsubscribe(ctx context.Context, user model.User, authorID int64) error {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return err
	}
	removed, err := s.subs.Unsubscribe(ctx, user.ID, authorID)
	if err != nil {
		return err
	}
	if !removed {
		return invalidField("id", "not subscribed")
	}
	return nil
}

// withRecipes attaches recipe previews to followed authors; all of them are
// subscribed by definition.
func (s *userService) withRecipes(ctx context.Context, authors []model.User, recipesLimit int) ([]model.UserWithRecipes, error) {
	ids := userIDs(authors)
	recipes, err := s.recipes.ListByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserWithRecipes, len(authors))
	for i, a := range authors {
		out[i] = model.NewUserWithRecipes(a, true, recipes[a.ID], counts[a.ID])
	}
	return out, nil
}

func (s *userService) subscribed(ctx context.Context, viewer *model.User, ids []int64) (map[int64]bool, error) {
	if viewer == nil || len(ids) == 0 {
		return map[int64]bool{}, nil
	}
	return s.subs.SubscribedTo(ctx, viewer.ID, ids)
}

func userIDs(users []model.User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
