package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const identityContextKey contextKey = "quizroomIdentity"

// Identity represents the authenticated principal stored in the request context.
type Identity struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
}

// Middleware validates bearer tokens and injects the authenticated identity.
// Requests without a valid, unexpired access token are rejected with 401
// before any handler runs.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := service.VerifyAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(string(identityContextKey), Identity{
			ID:      claims.UserID,
			Email:   claims.Email,
			IsAdmin: claims.IsAdmin,
		})

		c.Next()
	}
}

// RequireAdmin rejects requests whose identity lacks the admin flag. It must
// run after Middleware. The flag reflects the user's role as of the last
// login or refresh, not the current database row.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !identity.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser extracts the authenticated identity from the context.
func CurrentUser(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(string(identityContextKey))
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// RequireUser fetches the authenticated identity and returns its user ID.
func RequireUser(c *gin.Context) (uuid.UUID, Identity, bool) {
	identity, ok := CurrentUser(c)
	if !ok || identity.ID == uuid.Nil {
		return uuid.Nil, Identity{}, false
	}
	return identity.ID, identity, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
