package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/config"
	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/service"
)

// Deps are the use cases the HTTP layer exposes.
type Deps struct {
	Auth        service.AuthService
	Users       service.UserService
	Tags        service.TagService
	Ingredients service.IngredientService
	Recipes     service.RecipeService
	Pagination  config.PaginationConfig
}

// Register mounts all public routes on the given engine. Token resolution
// runs for the whole API; individual routes opt into RequireUser.
func Register(r *gin.Engine, repo Pinger, d Deps) {
	h := NewHealthHandler(repo)

	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	RegisterDocs(r)

	pages := newPageParser(d.Pagination)

	api := r.Group(APIPrefix, middleware.Authenticate(d.Auth))
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewAuthHandler(d.Auth).Register(api)
		NewUserHandler(d.Users, pages).Register(api)
		NewTagHandler(d.Tags).Register(api)
		NewIngredientHandler(d.Ingredients, pages).Register(api)
		NewRecipeHandler(d.Recipes, pages).Register(api)
	}
}
