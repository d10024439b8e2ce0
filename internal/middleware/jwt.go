package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing session claims.
	ContextUserKey = "currentUser"
	// ContextActorIDKey holds the acting id for request logs.
	ContextActorIDKey = "actor_id"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.ActorClaims, error)
}

// JWT protects routes by requiring a valid session token.
func JWT(sessions tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed authorization header"))
			c.Abort()
			return
		}

		claims, err := sessions.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a token is sent. Requests without one act as
// the guest; a token that fails validation is rejected rather than ignored.
func OptionalJWT(sessions tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := sessions.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setClaims(c *gin.Context, claims *models.ActorClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(ContextActorIDKey, claims.ActorID)
}
