package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/service"
	"github.com/maxviazov/foodgram-service/pkg/response"
)

const recipesLimitParam = "recipes_limit"

type UserHandler struct {
	svc   service.UserService
	pages pageParser
}

func NewUserHandler(svc service.UserService, pages pageParser) *UserHandler {
	return &UserHandler{svc: svc, pages: pages}
}

func (h *UserHandler) Register(r *gin.RouterGroup) {
	auth := middleware.RequireUser()
	g := r.Group("/users")
	{
		g.POST("", h.register)
		g.GET("", h.list)
		g.GET("/me", auth, h.me)
		g.PUT("/me/avatar", auth, h.setAvatar)
		g.DELETE("/me/avatar", auth, h.deleteAvatar)
		g.POST("/set_password", auth, h.setPassword)
		g.GET("/subscriptions", auth, h.subscriptions)
		g.GET("/:id", h.get)
		g.POST("/:id/subscribe", auth, h.subscribe)
		g.DELETE("/:id/subscribe", auth, h.unsubscribe)
	}
}

func (h *UserHandler) register(c *gin.Context) {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, u)
}

func (h *UserHandler) list(c *gin.Context) {
	q, err := h.pages.parse(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *UserHandler) me(c *gin.Context) {
	u := currentUser(c)
	res, err := h.svc.Get(c.Request.Context(), &u, u.ID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *UserHandler) get(c *gin.Context) {
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

func (h *UserHandler) setPassword(c *gin.Context) {
	var req service.SetPasswordInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.SetPassword(c.Request.Context(), currentUser(c), req); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteNoContent(c)
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

func (h *UserHandler) setAvatar(c *gin.Context) {
	var req service.AvatarInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	avatar, err := h.svc.SetAvatar(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, avatarResponse{Avatar: avatar})
}

func (h *UserHandler) deleteAvatar(c *gin.Context) {
	if err := h.svc.DeleteAvatar(c.Request.Context(), currentUser(c)); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteNoContent(c)
}

func (h *UserHandler) subscriptions(c *gin.Context) {
	q, err := h.pages.parse(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	recipesLimit, err := optionalInt(c, recipesLimitParam)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Subscriptions(c.Request.Context(), currentUser(c), q, recipesLimit)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *UserHandler) subscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	recipesLimit, err := optionalInt(c, recipesLimitParam)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Subscribe(c.Request.Context(), currentUser(c), id, recipesLimit)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, res)
}

func (h *UserHandler) unsubscribe(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.Unsubscribe(c.Request.Context(), currentUser(c), id); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteNoContent(c)
}
