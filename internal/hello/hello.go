// Package hello is the smallest responder: a fixed plaintext greeting on every
// path, used to prove a language runtime image can bind a port and answer.
package hello

import (
	"net/http"

	"github.com/garyellow/demo-servers/internal/respond"
	"github.com/gin-gonic/gin"
)

// Greeting is written for every request.
const Greeting = "Hello from Go!\n"

// Responder answers every GET with Greeting.
type Responder struct{}

// New creates a hello Responder.
func New() *Responder {
	return &Responder{}
}

// Mount registers the greeting as the catch-all.
func (Responder) Mount(router *gin.Engine) {
	router.NoRoute(respond.ReadOnly(), func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain", []byte(Greeting))
	})
}
