package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-chars"

func TestHasher(t *testing.T) {
	t.Parallel()

	h := NewHasher(4)
	digest, err := h.Hash("s3cretPass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cretPass", digest)
	assert.True(t, h.Compare("s3cretPass", digest))
	assert.False(t, h.Compare("wrong", digest))

	again, err := h.Hash("s3cretPass")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "digests must be salted per call")
}

func TestNewHasher_OutOfRangeCost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 10, NewHasher(0).cost)
	assert.Equal(t, 10, NewHasher(99).cost)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer(testSecret, 0)
	token, p, err := issuer.Sign(7)
	require.NoError(t, err)
	assert.NotEmpty(t, p.SessionID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), p.ExpiresAt, time.Minute)

	got, err := issuer.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, p.SessionID, got.SessionID)

	_, other, err := issuer.Sign(7)
	require.NoError(t, err)
	assert.NotEqual(t, p.SessionID, other.SessionID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer(testSecret, time.Hour)
	valid, _, err := issuer.Sign(3)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "3", "iss": Issuer, "aud": Audience, "jti": "sid",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	expired := base()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongIss := base()
	wrongIss["iss"] = "someone-else"
	wrongAud := base()
	wrongAud["aud"] = "someone-else"
	badSub := base()
	badSub["sub"] = "abc"
	noExp := base()
	delete(noExp, "exp")

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong secret":   sign(jwt.SigningMethodHS256, []byte("another-secret"), base()),
		"wrong alg":      sign(jwt.SigningMethodHS512, []byte(testSecret), base()),
		"expired":        sign(jwt.SigningMethodHS256, []byte(testSecret), expired),
		"wrong issuer":   sign(jwt.SigningMethodHS256, []byte(testSecret), wrongIss),
		"wrong audience": sign(jwt.SigningMethodHS256, []byte(testSecret), wrongAud),
		"bad subject":    sign(jwt.SigningMethodHS256, []byte(testSecret), badSub),
		"no expiry":      sign(jwt.SigningMethodHS256, []byte(testSecret), noExp),
		"tampered":       valid[:len(valid)-2] + "xx",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Decode(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("abc"))
	assert.Empty(t, BearerToken(""))
}
