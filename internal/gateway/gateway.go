// Package gateway is the single HTTP client used for every back-office
// call. It attaches the bearer token per request, read from the session
// controller at call time, and it normalises every failure into the
// serviceerr taxonomy before anything downstream sees it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/serviceerr"
	"github.com/openkcm/console-session/internal/session"
)

const profileCacheKey = "profile"

// CredentialSource yields the current bearer token, or empty when the
// session is anonymous. Reading it at call time keeps the gateway free
// of shared mutable auth state.
type CredentialSource interface {
	Token() string
}

type Option func(*Client)

// WithInvalidationHandler registers the forced-logout signal: invoked
// when a 401 is observed on any call other than login.
func WithInvalidationHandler(fn func(context.Context)) Option {
	return func(c *Client) { c.onInvalid = fn }
}

// WithHTTPClient replaces the underlying client, keeping its jar if one
// is set.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

type Client struct {
	mu   sync.Mutex
	http *http.Client

	cfg       config.API
	creds     CredentialSource
	onInvalid func(context.Context)
	cache     *gocache.Cache
	tracer    trace.Tracer
}

func NewClient(cfg config.API, creds CredentialSource, opts ...Option) (*Client, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		http: &http.Client{
			Timeout: cfg.RequestTimeout,
			Jar:     jar,
		},
		cfg:    cfg,
		creds:  creds,
		cache:  gocache.New(cfg.ProfileCacheTTL, 2*cfg.ProfileCacheTTL),
		tracer: otel.Tracer("console-session/gateway"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

var _ = session.Gateway(&Client{})

// Login exchanges credentials for a token. The request never carries a
// bearer token: a stale one could mask a credentials error behind an
// unrelated 401 branch.
func (c *Client) Login(ctx context.Context, identifier, secret string) (session.LoginReply, error) {
	req := struct {
		Identifier string `json:"identifier"`
		Secret     string `json:"secret"`
	}{Identifier: identifier, Secret: secret}

	var reply session.LoginReply
	err := c.do(ctx, "login", http.MethodPost, c.cfg.LoginPath, "", req, &reply)
	if err != nil {
		return session.LoginReply{}, err
	}

	return reply, nil
}

// Profile fetches the current profile with the stored token. Always a
// network call: bootstrap and refresh rely on it reaching the server.
// The response refreshes the local cache for display readers.
func (c *Client) Profile(ctx context.Context) (session.Profile, error) {
	var profile session.Profile
	err := c.do(ctx, "profile", http.MethodGet, c.cfg.ProfilePath, c.creds.Token(), nil, &profile)
	if err != nil {
		return session.Profile{}, err
	}

	c.cache.Set(profileCacheKey, profile, gocache.DefaultExpiration)

	return profile, nil
}

// ProfileCached serves display readers from the short-lived cache,
// falling back to the network.
func (c *Client) ProfileCached(ctx context.Context) (session.Profile, error) {
	if cached, ok := c.cache.Get(profileCacheKey); ok {
		//nolint:forcetypeassert
		return cached.(session.Profile), nil
	}

	return c.Profile(ctx)
}

// Invalidate is the best-effort server-side logout. The token is passed
// explicitly because the controller clears its credential before this
// call is made.
func (c *Client) Invalidate(ctx context.Context, token string) error {
	return c.do(ctx, "logout", http.MethodPost, c.cfg.LogoutPath, token, nil, nil)
}

// ClearLocalState drops every readable cookie and flushes the response
// cache. Called by the controller on logout, never by the gateway itself.
// The underlying client is replaced wholesale rather than mutated: a
// request already in flight keeps the instance it started with.
func (c *Client) ClearLocalState() {
	jar, err := cookiejar.New(nil)

	c.mu.Lock()
	if err == nil {
		old := c.http
		c.http = &http.Client{
			Transport:     old.Transport,
			CheckRedirect: old.CheckRedirect,
			Jar:           jar,
			Timeout:       old.Timeout,
		}
	}
	c.mu.Unlock()

	c.cache.Flush()
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.http
}

func (c *Client) do(ctx context.Context, op, method, path, token string, reqBody, respBody any) error {
	ctx = slogctx.With(ctx, "request_id", uuid.NewString(), "operation", op)

	ctx, span := c.tracer.Start(ctx, op+"-span", trace.WithAttributes(
		attribute.String("operation", op),
	))
	defer span.End()

	target, err := url.JoinPath(c.cfg.BaseURL, path)
	if err != nil {
		return fmt.Errorf("joining request path: %w", err)
	}

	var body *bytes.Buffer
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating a new HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		// no HTTP status was received: distinct from any server answer,
		// so the UI can say "check your connection" instead of "bad
		// credentials"
		slogctx.Warn(ctx, "Request did not reach the server", "error", err)
		return serviceerr.New(serviceerr.ErrUnreachable, 0, err.Error())
	}
	defer resp.Body.Close()

	if err := c.classify(ctx, op, resp); err != nil {
		return err
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decoding %s response: %w", op, err)
		}
	}

	return nil
}

// classify maps the response onto the closed taxonomy. It is the only
// place an HTTP status is interpreted.
func (c *Client) classify(ctx context.Context, op string, resp *http.Response) error {
	code := resp.StatusCode

	switch {
	case code < 400:
		return nil
	case code >= 500:
		return serviceerr.New(serviceerr.ErrServer, code, serverMessage(resp))
	case op == "login":
		// the user was never authenticated in this attempt; a 4xx here
		// is a plain credentials failure, never a forced logout
		return serviceerr.New(serviceerr.ErrCredentials, code, serverMessage(resp))
	case code == http.StatusUnauthorized:
		slogctx.Info(ctx, "Server no longer accepts the session token")
		if c.onInvalid != nil {
			c.onInvalid(ctx)
		}
		return serviceerr.New(serviceerr.ErrSessionInvalid, code, serverMessage(resp))
	default:
		return serviceerr.New(serviceerr.ErrServer, code, serverMessage(resp))
	}
}

// serverMessage pulls the error message out of the conventional
// {"message": "..."} body, when there is one.
func serverMessage(resp *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}

	return payload.Message
}
