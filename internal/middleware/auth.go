package middleware

import (
	"strings"

	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	SessionAdminID  = "admin_id"
	SessionUsername = "admin_username"

	ContextAdminID  = "admin_id"
	ContextUsername = "admin_username"
)

// AdminRequired accepts a logged-in session first and falls back to an
// Authorization: Bearer token.
func AdminRequired(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, cfg) {
			utils.Unauthorized(c, "admin login required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAdmin marks the request as admin when credentials are present
// and lets it through either way.
func OptionalAdmin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, cfg)
		c.Next()
	}
}

func IsAdmin(c *gin.Context) bool {
	_, ok := c.Get(ContextAdminID)
	return ok
}

func authenticate(c *gin.Context, cfg *config.Config) bool {
	session := sessions.Default(c)
	if id, ok := session.Get(SessionAdminID).(uint); ok && id != 0 {
		username, _ := session.Get(SessionUsername).(string)
		c.Set(ContextAdminID, id)
		c.Set(ContextUsername, username)
		return true
	}

	token := extractToken(c)
	if token == "" {
		return false
	}
	claims, err := utils.ParseToken(token, cfg.JWT.Secret)
	if err != nil {
		return false
	}
	c.Set(ContextAdminID, claims.AdminID)
	c.Set(ContextUsername, claims.Username)
	return true
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
