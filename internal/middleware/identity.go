package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by IdentityMiddleware.
const (
	ContextActorID        = "actorID"
	ContextActorName      = "actorName"
	ContextOrganizationID = "organizationID"
)

// IdentityMiddleware extracts the acting user from the session headers the
// surrounding platform injects. The values are opaque to the core; mutating
// requests without an actor are rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader("X-Actor-Id")
		if actorID == "" && c.Request.Method != http.MethodGet {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing actor identity"})
			return
		}

		c.Set(ContextActorID, actorID)
		c.Set(ContextActorName, c.GetHeader("X-Actor-Name"))
		c.Set(ContextOrganizationID, c.GetHeader("X-Organization-Id"))

		c.Next()
	}
}
