package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type tagService struct {
	repo repository.TagRepository
	log  zerolog.Logger
}

func NewTagService(repo repository.TagRepository, logger zerolog.Logger) TagService {
	l := logger.With().Str("module", "service").Str("component", "tag").Logger()
	return &tagService{repo: repo, log: l}
}

func (s *tagService) Create(ctx context.Context, in TagInput) (model.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return model.Tag{}, err
	}
	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Name
	}
	tagSlug := slug.Make(source)
	if tagSlug == "" {
		return model.Tag{}, invalidField("slug", "must contain at least one letter or digit")
	}
	if len(tagSlug) > 32 {
		return model.Tag{}, invalidField("slug", "must be at most 32 characters")
	}

	out, err := s.repo.Create(ctx, model.Tag{Name: in.Name, Slug: tagSlug})
	if err != nil {
		s.log.Error().Err(err).Str("slug", tagSlug).Msg("create tag failed")
		return model.Tag{}, err
	}
	s.log.Info().Int64("tag_id", out.ID).Str("slug", out.Slug).Msg("tag created")
	return out, nil
}

func (s *tagService) Get(ctx context.Context, id int64) (model.Tag, error) {
	if id <= 0 {
		return model.Tag{}, invalidField("id", "must be > 0")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *tagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.repo.List(ctx)
}
