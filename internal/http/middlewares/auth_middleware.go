package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/actorctx"
	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/domain/user"
	"github.com/geocoder89/supplylens/internal/observability"
)

// Keep these small interfaces so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLookup
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLookup, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, prom: prom}
}

const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeTokenExpired     = "AUTH_TOKEN_EXPIRED"
	CodeInvalidToken     = "AUTH_INVALID_TOKEN"
)

// RequireAuth resolves the bearer token to a stored user. A missing or
// non-Bearer header is 403; a token that fails verification, or whose
// subject no longer exists, is 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.prom.AuthFailure("missing")
			abortWith(c, http.StatusForbidden, CodeNotAuthenticated, "Not authenticated")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			if errors.Is(err, auth.ErrExpiredToken) {
				m.prom.AuthFailure("expired")
				abortWith(c, http.StatusUnauthorized, CodeTokenExpired, "Token has expired")
				return
			}
			m.prom.AuthFailure("invalid")
			abortWith(c, http.StatusUnauthorized, CodeInvalidToken, "Could not validate credentials")
			return
		}

		cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(cctx, claims.UserID())
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.prom.AuthFailure("unknown_user")
				c.Header("WWW-Authenticate", "Bearer")
				abortWith(c, http.StatusUnauthorized, CodeInvalidToken, "Could not validate credentials")
				return
			}
			slog.Default().ErrorContext(c.Request.Context(), "resolve current user", "err", err, "request_id", c.GetString(CtxRequestID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, internalError())
			return
		}

		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
