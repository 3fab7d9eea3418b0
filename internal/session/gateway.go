package session

import "context"

// Gateway is the slice of the request gateway the controller consumes.
type Gateway interface {
	// Login exchanges credentials for a token. The request never
	// carries a stale bearer token.
	Login(ctx context.Context, identifier, secret string) (LoginReply, error)
	// Profile fetches the current profile using the stored token. Used
	// identically for bootstrap validation and for periodic refresh.
	Profile(ctx context.Context) (Profile, error)
	// Invalidate is the best-effort server-side logout for the given
	// token. Callers must not depend on its success.
	Invalidate(ctx context.Context, token string) error
	// ClearLocalState drops the gateway's cookie jar and any local
	// response caches.
	ClearLocalState()
}

// LoginReply is the successful login response.
type LoginReply struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}
