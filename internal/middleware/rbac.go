package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/response"
)

// RequireRoles lets the request through only when the session role is one of
// roles. It must run after JWT.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		claims, ok := value.(*models.ActorClaims)
		if !exists || !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrUnauthorizedRole)
			c.Abort()
			return
		}
		c.Next()
	}
}
