package session

import (
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// The backend never returns an explicit expires_at, so the refresh time
// is derived from the token's own exp claim when the token is a JWT.
// Claims are read without signature verification: the client holds no
// keys and only needs a timing hint, never a trust decision.
var expiryAlgs = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.HS256, jose.HS384, jose.HS512,
	jose.EdDSA,
}

func tokenExpiry(token string) (time.Time, bool) {
	parsed, err := jwt.ParseSigned(token, expiryAlgs)
	if err != nil {
		return time.Time{}, false
	}

	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return time.Time{}, false
	}
	if claims.Expiry == nil {
		return time.Time{}, false
	}

	return claims.Expiry.Time(), true
}

// refreshDelay computes how long to wait before renewing the credential:
// the token's encoded expiry when readable, the assumed validity window
// otherwise, minus the safety threshold in both cases. An already-due
// renewal yields zero.
func refreshDelay(cred Credential, validity, safety time.Duration) time.Duration {
	expiry, ok := tokenExpiry(cred.Token)
	if !ok {
		expiry = cred.IssuedAt.Add(validity)
	}

	d := time.Until(expiry.Add(-safety))
	if d < 0 {
		return 0
	}
	return d
}
