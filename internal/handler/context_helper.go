package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/TomaX04/Voz-del-Caser-o/internal/middleware"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

func claimsFromContext(c *gin.Context) *models.ActorClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.ActorClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext returns the session actor, or the guest for tokenless requests.
func actorFromContext(c *gin.Context) models.Actor {
	return claimsFromContext(c).Actor()
}
