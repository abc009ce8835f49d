package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/envelope"
)

// abortWith stops the chain with a failure envelope.
func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, envelope.Failure(code, message, nil))
}
