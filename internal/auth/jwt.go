package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrWrongTokenKind   = errors.New("token kind not accepted here")

	errUnexpectedAlg = errors.New("unexpected signing method")
)

type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID is the subject the token was issued for.
func (c *Claims) UserID() string {
	return c.Subject
}

type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL time.Duration, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock swaps the time source used for issuing and validating tokens.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) GenerateAccessToken(userID string) (string, error) {
	return m.sign(userID, TokenTypeAccess, m.accessTTL)
}

func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(userID, TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) sign(userID, kind string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("empty subject")
	}

	now := m.now().UTC()

	claims := Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAndValidate checks signature and expiry and maps library failures onto
// ErrExpiredToken, ErrInvalidSignature and ErrMalformedToken.
func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	// a foreign alg is a malformed token, not a bad signature
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: %v", errUnexpectedAlg, t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrMalformedToken
	}

	return claims, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (*Claims, error) {
	return m.verifyKind(tokenStr, TokenTypeAccess)
}

func (m *Manager) VerifyRefreshToken(tokenStr string) (*Claims, error) {
	return m.verifyKind(tokenStr, TokenTypeRefresh)
}

func (m *Manager) verifyKind(tokenStr, kind string) (*Claims, error) {
	claims, err := m.ParseAndValidate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != kind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
