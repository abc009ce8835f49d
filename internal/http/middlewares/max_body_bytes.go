package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"

// MaxBodyBytes rejects a declared oversize body up front and caps the reader
// for chunked uploads. Binding reports the capped case.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if max <= 0 {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > max {
			abortWith(ctx, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
