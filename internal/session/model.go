package session

import "time"

// Status is the authoritative state of the client-side session.
type Status uint8

const (
	// StatusAnonymous means no usable credential exists.
	StatusAnonymous Status = iota
	// StatusValidating is the transient state while a stored credential
	// is checked against the profile endpoint during bootstrap.
	StatusValidating
	// StatusAuthenticated means the credential has been validated.
	StatusAuthenticated
	// StatusRefreshing means a proactive renewal is in flight; the
	// session is still treated as authenticated.
	StatusRefreshing
)

func (s Status) String() string {
	switch s {
	case StatusValidating:
		return "validating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

// Authenticated reports whether the session admits the user to protected
// content. A background refresh does not interrupt access.
func (s Status) Authenticated() bool {
	return s == StatusAuthenticated || s == StatusRefreshing
}

// Profile is the subset of the user identity the console needs.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Admin       bool   `json:"admin"`
}

// Credential is the persisted bearer token together with the moment it
// was issued or last renewed.
type Credential struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Record is what the credential repository persists: the token and the
// best-effort profile snapshot are written together and removed together.
// The snapshot is never proof of authentication.
type Record struct {
	Credential *Credential `json:"credential"`
	Profile    *Profile    `json:"profile"`
}

// Session is an immutable snapshot of the controller state, safe to hand
// to the route guard and the UI.
type Session struct {
	Status        Status
	User          *Profile
	CachedProfile *Profile
	LastError     error
	Generation    uint64
}
