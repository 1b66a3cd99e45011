package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Ключи контекста gin
const (
	UserIDKey    = "userID"
	PrincipalKey = "principal"
)

// PrincipalResolver turns a bearer token into the acting principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

// JWTAuthMiddleware проверяет заголовок Authorization и кладет в контекст
// ID пользователя и Principal
func JWTAuthMiddleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(apperror.KindOf(err).HTTPStatus(), gin.H{"error": apperror.PublicMessage(err)})
			return
		}

		c.Set(UserIDKey, principal.UserID)
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal достает Principal, положенный JWTAuthMiddleware
func CurrentPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok && p.UserID != uuid.Nil
}
