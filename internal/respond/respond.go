// Package respond holds the small pieces of request handling shared by every
// demo responder.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UnsupportedMethodBody is written for any method other than GET or HEAD.
const UnsupportedMethodBody = "Unsupported method"

// ReadOnly aborts with 501 unless the request is GET or HEAD.
// Responders mount their catch-all handlers behind it.
func ReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			c.Next()
		default:
			c.Header("Allow", "GET, HEAD")
			c.String(http.StatusNotImplemented, UnsupportedMethodBody)
			c.Abort()
		}
	}
}

// Text writes a plain-text body with an explicit content type.
func Text(c *gin.Context, status int, body string) {
	c.Data(status, "text/plain; charset=utf-8", []byte(body))
}
