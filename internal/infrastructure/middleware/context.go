package middleware

import (
	"agentmart/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// Gin context keys.
const (
	ContextRequestID    = "request_id"
	ContextEdgeIdentity = "edge_identity"
	ContextIdentity     = "identity"
	ContextEdgeReason   = "edge_reason"
)

// EdgeIdentity is the identity claimed by a valid session cookie. It is
// not verified against the identity store and only steers page routing.
func EdgeIdentity(c *gin.Context) *domain.Identity {
	return identityAt(c, ContextEdgeIdentity)
}

// CallerIdentity is the identity re-derived from the identity store by
// IdentityMiddleware. Nil means an anonymous caller.
func CallerIdentity(c *gin.Context) *domain.Identity {
	return identityAt(c, ContextIdentity)
}

func identityAt(c *gin.Context, key string) *domain.Identity {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	id, _ := v.(*domain.Identity)
	return id
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
