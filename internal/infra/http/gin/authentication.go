package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"stayloop/internal/infra/security"
)

const principalContextKey = "stayloop.principal"

type principal struct {
	ID   string
	Role string
}

func (p principal) canHost() bool {
	return p.Role == "host" || p.Role == "admin"
}

// AuthMiddleware resolves the bearer token into a principal. Invalid or
// missing tokens leave the request anonymous; handlers decide whether auth
// is required.
type AuthMiddleware struct {
	Tokens security.TokenManager
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.Next()
		return
	}
	claims, err := m.Tokens.Parse(token)
	if err != nil {
		c.Next()
		return
	}
	c.Set(principalContextKey, principal{ID: claims.UserID, Role: claims.Role})
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireAuth(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}

func requireHost(c *gin.Context) (principal, bool) {
	p, ok := requireAuth(c)
	if !ok {
		return principal{}, false
	}
	if !p.canHost() {
		c.JSON(http.StatusForbidden, gin.H{"error": "host role required"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
