package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/service"
	"github.com/maxviazov/foodgram-service/pkg/response"
)

type TagHandler struct {
	svc service.TagService
}

func NewTagHandler(svc service.TagService) *TagHandler { return &TagHandler{svc: svc} }

func (h *TagHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tags")
	{
		g.GET("", h.list)
		g.GET("/:id", h.get)
		g.POST("", middleware.RequireUser(), h.create)
	}
}

func (h *TagHandler) list(c *gin.Context) {
	tags, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, tags)
}

func (h *TagHandler) get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	tag, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, tag)
}

func (h *TagHandler) create(c *gin.Context) {
	var req service.TagInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	tag, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, tag)
}

type IngredientHandler struct {
	svc   service.IngredientService
	pages pageParser
}

func NewIngredientHandler(svc service.IngredientService, pages pageParser) *IngredientHandler {
	return &IngredientHandler{svc: svc, pages: pages}
}

func (h *IngredientHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/ingredients")
	{
		g.GET("", h.search)
		g.GET("/:id", h.get)
		g.POST("", middleware.RequireUser(), h.create)
	}
}

func (h *IngredientHandler) search(c *gin.Context) {
	q, err := h.pages.parse(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Search(c.Request.Context(), strings.TrimSpace(c.Query("name")), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *IngredientHandler) get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	ing, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, ing)
}

func (h *IngredientHandler) create(c *gin.Context) {
	var req service.IngredientInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	ing, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, ing)
}
