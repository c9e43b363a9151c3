package middleware

import (
	"strings"

	"mechongo/internal/models"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthConfig carries what the middleware needs to verify bearer tokens.
type AuthConfig struct {
	Secret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// AuthRequired validates the JWT and sets the caller's id and role.
func AuthRequired(config AuthConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c)
			return
		}

		if !authenticate(c, config, tokenString, log) {
			utils.UnauthorizedResponse(c)
			return
		}

		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is presented in the
// Authorization header or the token query parameter, and lets anonymous
// requests through. WebSocket subscribers use it.
func OptionalAuth(config AuthConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString != "" {
			authenticate(c, config, tokenString, log)
		}

		c.Next()
	}
}

// RoleRequired ensures the authenticated caller holds one of roles.
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			utils.UnauthorizedResponse(c)
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c)
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return strings.TrimSpace(token)
}

func authenticate(c *gin.Context, config AuthConfig, tokenString string, log *logger.Logger) bool {
	claims, err := utils.ValidateToken(tokenString, config.Secret)
	if err != nil {
		log.WithContext(c.Request.Context()).LogSecurityEvent("invalid_token", "low", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		return false
	}
	if config.Issuer != "" && claims.Issuer != config.Issuer {
		log.WithContext(c.Request.Context()).LogSecurityEvent("foreign_issuer", "medium", map[string]interface{}{
			"path":   c.FullPath(),
			"issuer": claims.Issuer,
		})
		return false
	}

	role := models.Role(claims.Role)
	if !role.Valid() {
		return false
	}

	userID, _ := claims.ObjectID()
	c.Set(utils.ContextUserIDKey, userID)
	c.Set(utils.ContextUserRoleKey, role)
	c.Request = c.Request.WithContext(logger.ContextWithCallerID(c.Request.Context(), userID))
	return true
}

// GetUserID returns the authenticated caller, if any.
func GetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(utils.ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

func GetUserRole(c *gin.Context) (models.Role, bool) {
	value, exists := c.Get(utils.ContextUserRoleKey)
	if !exists {
		return "", false
	}
	role, ok := value.(models.Role)
	return role, ok
}
