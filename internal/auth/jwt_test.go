package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(clock *fakeClock) *Manager {
	return NewManager(testSecret, 15*time.Minute, 7*24*time.Hour).WithClock(clock.Now)
}

func TestManager_AccessTokenRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	m := newTestManager(clock)

	raw, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, clock.t.Equal(claims.IssuedAt.Time))
	assert.True(t, clock.t.Add(15*time.Minute).Equal(claims.ExpiresAt.Time))
}

func TestManager_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newTestManager(clock)

	raw, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	clock.t = issued.Add(15*time.Minute - time.Second)
	_, err = m.VerifyAccessToken(raw)
	require.NoError(t, err, "token must be valid just before expiry")

	clock.t = issued.Add(15 * time.Minute)
	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrExpiredToken, "token must be expired at issue+ttl")

	clock.t = issued.Add(time.Hour)
	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_RefreshTokenUsesRefreshTTL(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newTestManager(clock)

	raw, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	clock.t = issued.Add(6 * 24 * time.Hour)
	claims, err := m.VerifyRefreshToken(raw)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)

	clock.t = issued.Add(7 * 24 * time.Hour)
	_, err = m.VerifyRefreshToken(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_KindIsEnforced(t *testing.T) {
	m := newTestManager(&fakeClock{t: time.Now()})

	access, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenKind)

	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, ErrWrongTokenKind)

	// the kind-agnostic parse accepts both
	_, err = m.ParseAndValidate(refresh)
	assert.NoError(t, err)
}

func TestManager_TamperedSignature(t *testing.T) {
	m := newTestManager(&fakeClock{t: time.Now()})

	raw, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestManager_ForeignKey(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	other := NewManager("another-secret", time.Minute, time.Hour).WithClock(clock.Now)

	raw, err := other.GenerateAccessToken("user-1")
	require.NoError(t, err)

	_, err = newTestManager(clock).VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestManager_Malformed(t *testing.T) {
	m := newTestManager(&fakeClock{t: time.Now()})

	for _, raw := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30"} {
		_, err := m.VerifyAccessToken(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", raw)
	}

	claims := Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(hs512)
	assert.ErrorIs(t, err, ErrMalformedToken, "HS512 is not accepted")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(none)
	assert.ErrorIs(t, err, ErrMalformedToken, "alg none is not accepted")
}

func TestManager_MissingClaimsAreMalformed(t *testing.T) {
	m := newTestManager(&fakeClock{t: time.Now()})

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TokenType:        TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	raw, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrMalformedToken)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err = noSub.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestManager_RejectsEmptySubject(t *testing.T) {
	m := newTestManager(&fakeClock{t: time.Now()})

	_, err := m.GenerateAccessToken("")
	assert.Error(t, err)
}
