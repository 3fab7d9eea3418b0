// Package session owns the authoritative client-side session state
// machine for the admin console: credential persistence, proactive token
// renewal, and forced-logout detection. The controller is the single
// writer of the credential repository and of the gateway's local state.
package session

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/serviceerr"
)

// Controller mutates the Session exclusively. All other components read
// snapshots or subscribe to events.
type Controller struct {
	mu         sync.Mutex
	status     Status
	cred       *Credential
	user       *Profile
	cached     *Profile
	lastErr    error
	generation uint64
	refreshing bool
	subs       []func(Event)

	repo      Repository
	gw        Gateway
	sched     *RefreshScheduler
	cfg       config.Session
	locate    func() string
	startedAt time.Time
}

type Option func(*Controller)

// WithLocator supplies the current navigation path of the console UI,
// used to attach a post-login return target to logout redirects.
func WithLocator(fn func() string) Option {
	return func(c *Controller) { c.locate = fn }
}

func NewController(cfg config.Session, repo Repository, gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		gw:        gw,
		cfg:       cfg,
		startedAt: time.Now(),
	}
	c.sched = NewRefreshScheduler(func() {
		c.Refresh(context.Background())
	})

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Token implements the gateway's credential source. It returns the
// current bearer token, or empty when the session is anonymous.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cred == nil {
		return ""
	}
	return c.cred.Token
}

// GraceElapsed reports whether the bootstrap grace window has passed.
// The route guard shows a loading placeholder until it has.
func (c *Controller) GraceElapsed() bool {
	return time.Since(c.startedAt) > c.cfg.BootstrapGrace
}

// Scheduler exposes the refresh scheduler for teardown by the owning
// process.
func (c *Controller) Scheduler() *RefreshScheduler {
	return c.sched
}

// Bootstrap reads the stored credential and validates it remotely. It
// never returns an error: failures are absorbed into the returned state.
func (c *Controller) Bootstrap(ctx context.Context) Session {
	rec, err := c.repo.Load(ctx)
	if err != nil {
		slogctx.Warn(ctx, "Could not read the credential store", "error", err)
	}

	if rec.Credential == nil {
		c.mu.Lock()
		c.status = StatusAnonymous
		snap := c.snapshotLocked()
		c.mu.Unlock()

		return snap
	}

	c.mu.Lock()
	from := c.status
	c.cred = rec.Credential
	c.cached = rec.Profile
	c.status = StatusValidating
	gen := c.generation
	ev, subs := c.eventLocked("", nil)
	c.mu.Unlock()

	recordTransition(ctx, from, StatusValidating)
	dispatch(ev, subs)

	profile, err := c.gw.Profile(ctx)

	c.mu.Lock()
	if c.generation != gen {
		// a logout raced the validation; its cleanup wins
		snap := c.snapshotLocked()
		c.mu.Unlock()

		return snap
	}

	switch {
	case err == nil:
		p := profile
		c.user = &p
		c.cached = &p
		c.status = StatusAuthenticated
		c.lastErr = nil
		c.persistLocked(ctx)
		c.armLocked(ctx)
	case errors.Is(err, serviceerr.ErrServer):
		// The backend is up but unwell: keep the stored record so the
		// next start can re-validate, surface the cached profile for
		// display only, and stay anonymous until a validation succeeds.
		c.cred = nil
		c.user = nil
		c.status = StatusAnonymous
		c.lastErr = err
	default:
		// 401 or unreachable: fail closed with full cleanup.
		slogctx.Info(ctx, "Stored credential did not validate", "error", err)
		c.finishLogout(ctx, false, err)

		return c.Snapshot()
	}

	ev, subs = c.eventLocked("", c.lastErr)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	recordTransition(ctx, StatusValidating, snap.Status)
	dispatch(ev, subs)

	return snap
}

// Login exchanges credentials for a token and, on success, persists the
// credential, authenticates the session, and arms the refresh scheduler.
// It returns the navigation target: returnTo when provided, the default
// landing page otherwise. On failure the session state is untouched and
// the error is surfaced to the caller only.
func (c *Controller) Login(ctx context.Context, identifier, secret, returnTo string) (string, error) {
	reply, err := c.gw.Login(ctx, identifier, secret)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	from := c.status
	c.generation++
	c.refreshing = false
	c.cred = &Credential{Token: reply.Token, IssuedAt: time.Now()}
	user := reply.User
	c.user = &user
	c.cached = &user
	c.status = StatusAuthenticated
	c.lastErr = nil
	c.persistLocked(ctx)
	c.armLocked(ctx)
	ev, subs := c.eventLocked("", nil)
	c.mu.Unlock()

	slogctx.Info(ctx, "Logged in", "user_id", reply.User.ID)
	recordTransition(ctx, from, StatusAuthenticated)
	dispatch(ev, subs)

	if returnTo == "" || returnTo == c.cfg.LoginSurface {
		returnTo = c.cfg.DefaultLanding
	}

	return returnTo, nil
}

// Refresh re-validates the session before its assumed expiry. At most one
// refresh is in flight: a second call while one is pending is a no-op and
// issues no network request.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.refreshing || c.status != StatusAuthenticated {
		c.mu.Unlock()

		return
	}
	c.refreshing = true
	c.status = StatusRefreshing
	gen := c.generation
	ev, subs := c.eventLocked("", nil)
	c.mu.Unlock()

	recordTransition(ctx, StatusAuthenticated, StatusRefreshing)
	dispatch(ev, subs)

	profile, err := c.gw.Profile(ctx)

	c.mu.Lock()
	if c.generation != gen {
		// the session this refresh began against is gone; drop the
		// result, whatever it was
		c.mu.Unlock()

		return
	}
	c.refreshing = false

	switch {
	case err == nil:
		p := profile
		c.user = &p
		c.cached = &p
		c.cred = &Credential{Token: c.cred.Token, IssuedAt: time.Now()}
		c.status = StatusAuthenticated
		c.lastErr = nil
		c.persistLocked(ctx)
		c.armLocked(ctx)
		ev, subs := c.eventLocked("", nil)
		c.mu.Unlock()

		recordTransition(ctx, StatusRefreshing, StatusAuthenticated)
		dispatch(ev, subs)
	case errors.Is(err, serviceerr.ErrServer):
		// a 5xx does not invalidate the session; stay authenticated and
		// retry within the safety threshold
		c.status = StatusAuthenticated
		c.lastErr = err
		c.sched.Arm(c.cfg.RefreshSafety)
		ev, subs := c.eventLocked("", err)
		c.mu.Unlock()

		slogctx.Warn(ctx, "Could not refresh the session, retrying", "error", err)
		recordTransition(ctx, StatusRefreshing, StatusAuthenticated)
		dispatch(ev, subs)
	default:
		// 401 or unreachable is fatal to the session
		slogctx.Info(ctx, "Session refresh failed, logging out", "error", err)
		c.finishLogout(ctx, true, err)
	}
}

// Logout terminates the session. Idempotent. Local cleanup is
// unconditional; the server-side invalidation is best effort.
func (c *Controller) Logout(ctx context.Context, redirect bool) {
	c.mu.Lock()
	c.finishLogout(ctx, redirect, nil)
}

// HandleSessionInvalid is the forced-invalidation signal from the request
// gateway: a 401 observed on any non-login call.
func (c *Controller) HandleSessionInvalid(ctx context.Context) {
	c.mu.Lock()
	if c.status == StatusAnonymous && c.cred == nil {
		c.mu.Unlock()

		return
	}

	slogctx.Info(ctx, "Session invalidated by the server")
	c.finishLogout(ctx, true, serviceerr.ErrSessionInvalid)
}

// finishLogout is the single cleanup path shared by explicit and forced
// logout. It must be entered with c.mu held and releases it. The
// scheduler and the refresh guard are cleared synchronously, before any
// of the asynchronous cleanup proceeds.
func (c *Controller) finishLogout(ctx context.Context, redirect bool, cause error) {
	from := c.status

	c.sched.Cancel()
	c.refreshing = false
	c.generation++

	var token string
	if c.cred != nil {
		token = c.cred.Token
	}
	c.cred = nil
	c.user = nil
	c.cached = nil
	c.status = StatusAnonymous
	c.lastErr = cause

	target := ""
	if redirect && c.locate != nil {
		if path := c.locate(); path != c.cfg.LoginSurface {
			target = loginRedirect(c.cfg.LoginSurface, path)
		}
	}
	ev, subs := c.eventLocked(target, cause)
	c.mu.Unlock()

	if err := c.repo.Clear(ctx); err != nil {
		slogctx.Warn(ctx, "Could not clear the credential store", "error", err)
	}
	c.gw.ClearLocalState()

	if token != "" {
		if err := c.gw.Invalidate(ctx, token); err != nil {
			slogctx.Warn(ctx, "Server-side logout failed", "error", err)
		}
	}

	recordTransition(ctx, from, StatusAnonymous)
	dispatch(ev, subs)
}

// persistLocked writes the credential and the profile snapshot together.
// A failed write leaves the in-memory session valid for this run.
func (c *Controller) persistLocked(ctx context.Context) {
	rec := Record{Credential: c.cred, Profile: c.cached}
	if err := c.repo.Store(ctx, rec); err != nil {
		slogctx.Warn(ctx, "Could not persist the credential", "error", err)
	}
}

func (c *Controller) armLocked(ctx context.Context) {
	d := refreshDelay(*c.cred, c.cfg.ValidityWindow, c.cfg.RefreshSafety)
	c.sched.Arm(d)
	slogctx.Debug(ctx, "Armed the refresh scheduler", "delay", d)
}

func (c *Controller) snapshotLocked() Session {
	return Session{
		Status:        c.status,
		User:          c.user,
		CachedProfile: c.cached,
		LastError:     c.lastErr,
		Generation:    c.generation,
	}
}

func (c *Controller) eventLocked(redirect string, cause error) (Event, []func(Event)) {
	ev := Event{
		Status:     c.status,
		Generation: c.generation,
		Redirect:   redirect,
		Err:        cause,
	}

	return ev, slices.Clone(c.subs)
}

func dispatch(ev Event, subs []func(Event)) {
	for _, fn := range subs {
		fn(ev)
	}
}

func loginRedirect(surface, returnTo string) string {
	if returnTo == "" {
		return surface
	}
	return surface + "?return_to=" + url.QueryEscape(returnTo)
}
