package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"tiyeni/internal/models"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
	"tiyeni/pkg/logger"
)

const sessionKey = "session"

// AuthRequired resolves the bearer token to a session and stores it on the
// context for GetSession.
func AuthRequired(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.AppErrorResponse(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, session)
		ctx := context.WithValue(c.Request.Context(), logger.ContextKeyUserID, session.UID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BearerToken reads the Authorization header. Browsers cannot set headers
// on a websocket handshake, so the token query parameter is accepted too.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

// GetSession returns the session set by AuthRequired, or nil.
func GetSession(c *gin.Context) *models.Session {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*models.Session)
	return session
}
