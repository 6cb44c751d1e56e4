package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// JSONOnly rejects body-carrying requests that do not declare a JSON
// content type.
func JSONOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := c.ContentType()
		if !strings.HasPrefix(contentType, "application/json") {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported Media Type"})
			return
		}

		c.Next()
	}
}
