package service

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/pagination"
	"github.com/maxviazov/foodgram-service/internal/repository"
)

type ingredientService struct {
	repo repository.IngredientRepository
	tx   repository.TxManager
	log  zerolog.Logger
}

func NewIngredientService(repo repository.IngredientRepository, tx repository.TxManager, logger zerolog.Logger) IngredientService {
	l := logger.With().Str("module", "service").Str("component", "ingredient").Logger()
	return &ingredientService{repo: repo, tx: tx, log: l}
}

func (s *ingredientService) Create(ctx context.Context, in IngredientInput) (model.Ingredient, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.MeasurementUnit = strings.TrimSpace(in.MeasurementUnit)
	if err := validateStruct(in); err != nil {
		return model.Ingredient{}, err
	}
	out, err := s.repo.Create(ctx, model.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit})
	if err != nil {
		s.log.Error().Err(err).Str("name", in.Name).Msg("create ingredient failed")
		return model.Ingredient{}, err
	}
	return out, nil
}

func (s *ingredientService) Get(ctx context.Context, id int64) (model.Ingredient, error) {
	if id <= 0 {
		return model.Ingredient{}, invalidField("id", "must be > 0")
	}
	return s.repo.GetByID(ctx, id)
}

// Search pages through ingredients containing name. Names starting with the
// query come first; the ranking happens in memory, so the whole match set is
// loaded and windowed as a slice. Without a name the catalogue is paged in SQL.
func (s *ingredientService) Search(ctx context.Context, name string, q pagination.Query) (pagination.Envelope[model.Ingredient], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.list(ctx, q)
	}
	found, err := s.repo.Search(ctx, name)
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("search ingredients failed")
		return pagination.Envelope[model.Ingredient]{}, err
	}
	return pagination.Run(ctx, q, pagination.SliceSource[model.Ingredient](rankByPrefix(found, name)))
}

func (s *ingredientService) list(ctx context.Context, q pagination.Query) (pagination.Envelope[model.Ingredient], error) {
	src := pagination.SourceFunc[model.Ingredient]{
		CountFn: s.repo.Count,
		FetchFn: func(ctx context.Context, limit, offset int) ([]model.Ingredient, error) {
			return s.repo.List(ctx, repository.Window{Limit: limit, Offset: offset})
		},
	}
	var out pagination.Envelope[model.Ingredient]
	err := s.tx.WithinSnapshot(ctx, func(ctx context.Context) error {
		var err error
		out, err = pagination.Run(ctx, q, src)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Int("page", q.Page).Int("limit", q.Limit).Msg("list ingredients failed")
		return pagination.Envelope[model.Ingredient]{}, err
	}
	return out, nil
}

// rankByPrefix moves prefix matches ahead of other matches, keeping the
// relative order within each group.
func rankByPrefix(items []model.Ingredient, prefix string) []model.Ingredient {
	p := strings.ToLower(prefix)
	rank := func(i model.Ingredient) int {
		if strings.HasPrefix(strings.ToLower(i.Name), p) {
			return 0
		}
		return 1
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b model.Ingredient) int { return rank(a) - rank(b) })
	return out
}
