package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/envelope"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
)

const CodeValidation = "VALIDATION_ERROR"

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, data any, message string) {
	ctx.JSON(http.StatusOK, envelope.Success(data, message))
}

// RespondFailure reports a business fault: HTTP 200 with success=false.
func RespondFailure(ctx *gin.Context, code, message string) {
	ctx.JSON(http.StatusOK, envelope.Failure(code, message, nil))
}

func RespondError(ctx *gin.Context, status int, code, message string, details map[string]any) {
	ctx.JSON(status, envelope.Failure(code, message, details))
}

func RespondValidation(ctx *gin.Context, message string, details map[string]any) {
	RespondError(ctx, http.StatusUnprocessableEntity, CodeValidation, message, details)
}

// RespondInternal logs err and hides it behind the generic 500 envelope.
func RespondInternal(ctx *gin.Context, op string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), op,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)
	RespondError(ctx, http.StatusInternalServerError, middlewares.CodeInternal, middlewares.MessageInternal, nil)
}

func RespondDeleted(ctx *gin.Context, message string) {
	RespondOK(ctx, gin.H{"deleted": true}, message)
}
