package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/middleware"
	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/service"
	"github.com/maxviazov/foodgram-service/pkg/response"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/auth/token")
	{
		g.POST("/login", h.login)
		g.POST("/logout", middleware.RequireUser(), h.logout)
	}
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req service.LoginInput
	if err := bindJSON(c, &req); err != nil {
		response.WriteError(c, err)
		return
	}
	token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, tokenResponse{AuthToken: token})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), currentUser(c)); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteNoContent(c)
}

// currentUser is only valid behind RequireUser.
func currentUser(c *gin.Context) model.User {
	if u := middleware.CurrentUser(c); u != nil {
		return *u
	}
	return model.User{}
}
