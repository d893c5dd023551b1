package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Context keys set by Auth.
const (
	AuthSubjectKey = "auth_subject"
	AuthRoleKey    = "auth_role"
)

// Roles
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Permissions
const (
	PermGenerate    = "generate"
	PermConfigRead  = "config:read"
	PermConfigWrite = "config:write"
)

// rolePermissions maps roles to their permissions.
var rolePermissions = map[string]map[string]bool{
	RoleViewer: {
		PermConfigRead: true,
	},
	RoleOperator: {
		PermGenerate:   true,
		PermConfigRead: true,
	},
	RoleAdmin: {
		PermGenerate:    true,
		PermConfigRead:  true,
		PermConfigWrite: true,
	},
}

func hasPermission(role, perm string) bool {
	return rolePermissions[role][perm]
}

// Claims are the JWT claims the API understands.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates a bearer JWT and stores the subject and role in the
// context. With an empty secret the API runs open and every request gets
// the admin role.
func Auth(jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Set(AuthRoleKey, RoleAdmin)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			Unauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			logger.Warn("JWT parse failed", zap.Error(err))
			Unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			Unauthorized(c, "invalid token claims")
			return
		}

		role := claims.Role
		if role == "" {
			role = RoleViewer
		}
		c.Set(AuthSubjectKey, claims.Subject)
		c.Set(AuthRoleKey, role)
		c.Next()
	}
}

// RequirePermission gates a route on the role stored by Auth.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(AuthRoleKey)
		if !hasPermission(role, perm) {
			AbortError(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
