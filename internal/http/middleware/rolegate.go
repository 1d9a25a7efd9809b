package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type EditorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RoleGate guards the write surface. Reads stay public; anything that
// mutates the tree needs a bearer token whose role claim matches one of
// the allowed roles.
type RoleGate struct {
	log    *logger.Logger
	secret []byte
}

func NewRoleGate(log *logger.Logger, secret string) *RoleGate {
	return &RoleGate{log: log.With("Middleware", "RoleGate"), secret: []byte(secret)}
}

func (rg *RoleGate) Require(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		parsedToken, err := jwt.ParseWithClaims(tokenString, &EditorClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return rg.secret, nil
		})
		if err != nil {
			rg.log.Debug("Token parse failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid or expired token", "code": "unauthorized"},
			})
			return
		}
		claims, ok := parsedToken.Claims.(*EditorClaims)
		if !ok || !parsedToken.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "invalid or expired token", "code": "unauthorized"},
			})
			return
		}
		for _, role := range roles {
			if strings.EqualFold(claims.Role, role) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{"message": "forbidden", "code": "forbidden"},
		})
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
