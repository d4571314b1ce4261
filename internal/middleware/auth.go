package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/foodgram-service/internal/model"
	"github.com/maxviazov/foodgram-service/internal/service"
	"github.com/maxviazov/foodgram-service/pkg/response"
)

const userKey = "auth_user"

// Authenticator resolves API tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// Authenticate resolves "Authorization: <scheme> <token>" when present. Any
// scheme is accepted. Requests without the header, or with a token that no
// longer exists, continue anonymously; RequireUser turns those into 401.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		u, err := a.Authenticate(c.Request.Context(), token)
		if errors.Is(err, service.ErrUnauthorized) {
			c.Next()
			return
		}
		if err != nil {
			response.WriteError(c, err)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.WriteError(c, service.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, ok := v.(model.User)
	if !ok {
		return nil
	}
	return &u
}

func bearer(header string) string {
	fields := strings.Fields(header)
	switch len(fields) {
	case 2:
		return fields[1]
	case 1:
		return fields[0]
	default:
		return ""
	}
}
