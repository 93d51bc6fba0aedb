package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reelforge/internal/api"
)

// authMiddleware returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header.
func authMiddleware(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(auth[7:]), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	}
}
