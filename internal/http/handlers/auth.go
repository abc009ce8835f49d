package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/domain/user"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
	"github.com/geocoder89/supplylens/internal/observability"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	VerifyRefreshToken(token string) (*auth.Claims, error)
}

// PasswordHasher is satisfied by *security.Hasher.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
	hasher PasswordHasher
	prom   *observability.Prom

	// compared against when the email is unknown so both paths cost a bcrypt
	dummyHash string
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, hasher PasswordHasher, prom *observability.Prom) (*AuthHandler, error) {
	dummy, err := hasher.Hash("supplylens-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("prepare login timing hash: %w", err)
	}

	return &AuthHandler{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		prom:      prom,
		dummyHash: dummy,
	}, nil
}

const (
	CodeUserExists         = "AUTH_USER_EXISTS"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
)

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	_, err := h.users.GetByEmail(cctx, req.Email)
	if err == nil {
		RespondFailure(ctx, CodeUserExists, "User with this email already exists")
		return
	}
	if !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "register: lookup", err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		RespondInternal(ctx, "register: hash", err)
		return
	}

	u, err := h.users.Create(cctx, req.Email, hash)
	if err != nil {
		// a concurrent registration won the unique index
		if errors.Is(err, user.ErrEmailTaken) {
			RespondFailure(ctx, CodeUserExists, "User with this email already exists")
			return
		}
		RespondInternal(ctx, "register: create", err)
		return
	}

	RespondOK(ctx, u.Public(), "User registered successfully")
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "login: lookup", err)
		return
	}

	digest := found.PasswordHash
	if err != nil {
		digest = h.dummyHash
	}

	if !h.hasher.Verify(req.Password, digest) || err != nil {
		h.prom.AuthFailure("bad_credentials")
		RespondFailure(ctx, CodeInvalidCredentials, "Invalid email or password")
		return
	}

	pair, err := h.issue(found.ID)
	if err != nil {
		RespondInternal(ctx, "login: issue tokens", err)
		return
	}

	RespondOK(ctx, pair, "Login successful")
}

// Refresh exchanges a valid refresh token for a new pair. Access tokens are
// not accepted here.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req user.RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		code := middlewares.CodeInvalidToken
		message := "Invalid refresh token"
		if errors.Is(err, auth.ErrExpiredToken) {
			code = middlewares.CodeTokenExpired
			message = "Refresh token has expired"
		}
		h.prom.AuthFailure("invalid_refresh")
		ctx.Header("WWW-Authenticate", "Bearer")
		RespondError(ctx, http.StatusUnauthorized, code, message, nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			h.prom.AuthFailure("unknown_user")
			ctx.Header("WWW-Authenticate", "Bearer")
			RespondError(ctx, http.StatusUnauthorized, middlewares.CodeInvalidToken, "Invalid refresh token", nil)
			return
		}
		RespondInternal(ctx, "refresh: lookup", err)
		return
	}

	pair, err := h.issue(u.ID)
	if err != nil {
		RespondInternal(ctx, "refresh: issue tokens", err)
		return
	}

	RespondOK(ctx, pair, "Token refreshed successfully")
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondInternal(ctx, "me: no resolved user", errors.New("auth middleware not mounted"))
		return
	}

	RespondOK(ctx, u.Public(), "User retrieved successfully")
}

// DeleteMe removes the account together with its alerts and watchlist.
func (h *AuthHandler) DeleteMe(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)
	if !ok {
		RespondInternal(ctx, "delete me: no resolved user", errors.New("auth middleware not mounted"))
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.users.Delete(cctx, u.ID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "delete me", err)
		return
	}

	RespondDeleted(ctx, "User deleted successfully")
}

func (h *AuthHandler) issue(userID string) (user.Token, error) {
	access, err := h.tokens.GenerateAccessToken(userID)
	if err != nil {
		return user.Token{}, err
	}

	refresh, err := h.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return user.Token{}, err
	}

	return user.Token{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}
