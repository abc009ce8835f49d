package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/envelope"
)

const (
	CodeInternal    = "INTERNAL_SERVER_ERROR"
	MessageInternal = "An unexpected error occurred"
)

func internalError() envelope.Envelope {
	return envelope.Failure(CodeInternal, MessageInternal, nil)
}

// Recovery turns a panic into the generic 500 envelope and logs the value.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Default().ErrorContext(c.Request.Context(), "panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(CtxRequestID),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, internalError())
	})
}
