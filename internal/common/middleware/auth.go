package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the SSO JWT claims issued by the Django backend.
type TokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func getAdminSubjects() []string {
	adminsStr := os.Getenv("ADMIN_SUBJECTS")
	if adminsStr == "" {
		return []string{}
	}

	var admins []string
	for _, s := range strings.Split(adminsStr, ",") {
		if s = strings.TrimSpace(s); s != "" {
			admins = append(admins, s)
		}
	}
	return admins
}

// ParseToken validates an SSO JWT and returns its claims.
func ParseToken(token, secret string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// RequireAuth validates the bearer token and stores its claims in the context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Bearer token required"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := ParseToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid token"})
			return
		}

		c.Set("claims", claims)
		c.Set("auth_token", token)
		c.Next()
	}
}

// RequireAdmin allows only subjects listed in ADMIN_SUBJECTS.
func RequireAdmin() gin.HandlerFunc {
	admins := getAdminSubjects()

	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Bearer token required"})
			return
		}

		tokenClaims, ok := claims.(*TokenClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid claims format"})
			return
		}

		isAdmin := false
		for _, admin := range admins {
			if tokenClaims.Subject == admin {
				isAdmin = true
				break
			}
		}

		if !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}

// Claims extracts the parsed token claims set by RequireAuth.
func Claims(c *gin.Context) (*TokenClaims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*TokenClaims)
	return claims, ok
}

// AuthToken extracts the raw bearer token set by RequireAuth.
func AuthToken(c *gin.Context) string {
	return c.GetString("auth_token")
}
