package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/service"
	"github.com/maxviazov/foodgram-service/pkg/response"
)

const shoppingListFile = "shopping_list.txt"

type RecipeHandler struct {
	svc   service.RecipeService
	pages pageParser
}

func NewRecipeHandler(svc service.RecipeService, pages pageParser) *RecipeHandler {
	return &RecipeHandler{svc: svc, pages: pages}
}

func (h *RecipeHandler) Register(r *gin.RouterGroup) {
	auth := middleware.RequireUser()
	g := r.Group("/recipes")
	{
		g.GET("", h.list)
		g.POST("", auth, h.create)
		g.GET("/download_shopping_cart", auth, h.downloadShoppingCart)
		g.GET("/:id", h.get)
		g.PATCH("/:id", auth, h.update)
		g.DELETE("/:id", auth, h.delete)
		g.POST("/:id/favorite", auth, h.addTo(model.Favorites))
		g.DELETE("/:id/favorite", auth, h.removeFrom(model.Favorites))
		g.POST("/:id/shopping_cart", auth, h.addTo(model.ShoppingCart))
		g.DELETE("/:id/shopping_cart", auth, h.removeFrom(model.ShoppingCart))
	}
}

func (h *RecipeHandler) list(c *gin.Context) {
	q, err := h.pages.parse(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	f, err := recipeFilter(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c), f, q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

// recipeFilter reads author, repeated tags and the two collection flags.
func recipeFilter(c *gin.Context) (service.RecipeListFilter, error) {
	var f service.RecipeListFilter
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return f, service.NewInvalidInput(service.FieldError{Field: "author", Message: "must be a positive integer"})
		}
		f.AuthorID = &id
	}
	for _, t := range c.QueryArray("tags") {
		if t = strings.TrimSpace(t); t != "" {
			f.Tags = append(f.Tags, t)
		}
	}
	f.IsFavorited = queryFlag(c, "is_favorited")
	f.IsInShoppingCart = queryFlag(c, "is_in_shopping_cart")
	return f, nil
}

func (h *RecipeHandler) create(c *gin.Context) {
	var req service.RecipeInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, res)
}

func (h *RecipeHandler) get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *RecipeHandler) update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req service.RecipeInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Update(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *RecipeHandler) delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteNoContent(c)
}

func (h *RecipeHandler) addTo(col model.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.WriteError(c, err)
			return
		}
		res, err := h.svc.AddTo(c.Request.Context(), col, currentUser(c), id)
		if err != nil {
			response.WriteError(c, err)
			return
		}
		response.WriteData(c, http.StatusCreated, res)
	}
}

func (h *RecipeHandler) removeFrom(col model.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			response.WriteError(c, err)
			return
		}
		if err := h.svc.RemoveFrom(c.Request.Context(), col, currentUser(c), id); err != nil {
			response.WriteError(c, err)
			return
		}
		response.WriteNoContent(c)
	}
}

func (h *RecipeHandler) downloadShoppingCart(c *gin.Context) {
	items, err := h.svc.ShoppingList(c.Request.Context(), currentUser(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shoppingListFile))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", renderShoppingList(items))
}

// renderShoppingList writes one "name (unit) - amount" line per ingredient.
func renderShoppingList(items []model.ShoppingItem) []byte {
	var buf bytes.Buffer
	for _, it := range items {
		fmt.Fprintf(&buf, "%s (%s) - %d\n", it.Name, it.MeasurementUnit, it.Amount)
	}
	return buf.Bytes()
}
