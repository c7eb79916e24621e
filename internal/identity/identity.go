// Package identity carries the authenticated actor through the request.
// Authentication itself happens at the edge; this service trusts the
// identity headers the gateway installs and passes the actor explicitly
// into every use case.
package identity

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/craftycorner/backend/internal/apperror"
)

type contextKey struct{}

// Actor is the authenticated principal performing a request.
type Actor struct {
	UserID string
	Email  string
	Admin  bool
}

// Middleware extracts the gateway-verified identity headers and rejects
// requests without one.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			err := apperror.Unauthorized("unauthenticated", "missing authenticated user")
			c.AbortWithStatusJSON(401, gin.H{"code": apperror.CodeOf(err), "message": apperror.MessageOf(err)})
			return
		}

		actor := Actor{
			UserID: userID,
			Email:  c.GetHeader("X-User-Email"),
			Admin:  c.GetHeader("X-User-Role") == "admin",
		}

		ctx := context.WithValue(c.Request.Context(), contextKey{}, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromContext returns the actor installed by Middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}
