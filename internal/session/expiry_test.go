package session

import (
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	key := []byte("0123456789abcdef0123456789abcdef")
	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	require.NoError(t, err)

	token, err := jwt.Signed(sig).Claims(claims).Serialize()
	require.NoError(t, err)

	return token
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(90 * time.Minute).Truncate(time.Second)
	token := signToken(t, jwt.Claims{
		Subject: "u1",
		Expiry:  jwt.NewNumericDate(exp),
	})

	got, ok := tokenExpiry(token)
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "got %v, want %v", got, exp)
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	_, ok := tokenExpiry("not-a-jwt-at-all")
	assert.False(t, ok)
}

func TestTokenExpiryNoExpClaim(t *testing.T) {
	token := signToken(t, jwt.Claims{Subject: "u1"})
	_, ok := tokenExpiry(token)
	assert.False(t, ok)
}

func TestRefreshDelay(t *testing.T) {
	const (
		validity = 72 * time.Hour
		safety   = 5 * time.Minute
	)

	t.Run("from the token's own exp claim", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		cred := Credential{
			Token:    signToken(t, jwt.Claims{Expiry: jwt.NewNumericDate(exp)}),
			IssuedAt: time.Now(),
		}

		d := refreshDelay(cred, validity, safety)
		// strictly before expiry by the safety threshold
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Hour-safety)
	})

	t.Run("fallback to the assumed window", func(t *testing.T) {
		cred := Credential{Token: "opaque", IssuedAt: time.Now()}

		d := refreshDelay(cred, validity, safety)
		assert.Greater(t, d, validity-safety-time.Minute)
		assert.LessOrEqual(t, d, validity-safety)
	})

	t.Run("already due yields zero", func(t *testing.T) {
		cred := Credential{Token: "opaque", IssuedAt: time.Now().Add(-validity)}
		assert.Equal(t, time.Duration(0), refreshDelay(cred, validity, safety))
	})
}
