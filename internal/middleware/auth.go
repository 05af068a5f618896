package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
)

// bearerClaims parses the Authorization header. present is false when the
// header is absent; errMsg is set when it is present but unusable.
func bearerClaims(c *gin.Context) (claims *utils.Claims, present bool, errMsg string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false, ""
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, true, "invalid authorization header format"
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		return nil, true, "invalid or expired token"
	}
	return claims, true, ""
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
}

// AuthRequired is a middleware that checks for a valid JWT token
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, present, errMsg := bearerClaims(c)
		if !present {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}
		if errMsg != "" {
			response.Unauthorized(c, errMsg)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous requests through. A bad token is still rejected so clients
// notice an expired session.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, present, errMsg := bearerClaims(c)
		if present && errMsg != "" {
			response.Unauthorized(c, errMsg)
			c.Abort()
			return
		}
		if claims != nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// AdminRequired is a middleware that checks for admin role
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetActor returns the caller as seen by the services; anonymous when no
// token was presented.
func GetActor(c *gin.Context) services.Actor {
	return services.Actor{UserID: GetUserID(c)}
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// GetRole gets the current user role from context
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}
