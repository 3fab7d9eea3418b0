package business

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/guard"
	"github.com/openkcm/console-session/internal/serviceerr"
	"github.com/openkcm/console-session/internal/session"
)

// LoginMain authenticates, persists the credential, and prints the
// navigation target for the console.
func LoginMain(ctx context.Context, cfg *config.Config, identifier, secret, returnTo string, out io.Writer) error {
	ctrl, closeFn, err := initController(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	target, err := ctrl.Login(ctx, identifier, secret, returnTo)
	if err != nil {
		return loginError(err)
	}

	snap := ctrl.Snapshot()
	fmt.Fprintf(out, "logged in as %s\n", snap.User.Email)
	fmt.Fprintln(out, target)

	return nil
}

// loginError turns the taxonomy kind into the message the operator sees.
// A failed login leaves the session untouched and the form usable.
func loginError(err error) error {
	switch serviceerr.Kind(err) {
	case serviceerr.ErrCredentials:
		return fmt.Errorf("login rejected: %w", err)
	case serviceerr.ErrUnreachable:
		return errors.New("could not reach the server, check your connection")
	default:
		return err
	}
}

// LogoutMain validates whatever is stored, then runs the full logout
// cleanup. Local state is cleared even when the server-side invalidation
// fails.
func LogoutMain(ctx context.Context, cfg *config.Config) error {
	ctrl, closeFn, err := initController(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ctrl.Bootstrap(ctx)
	ctrl.Logout(ctx, false)

	slogctx.Info(ctx, "Logged out")

	return nil
}

type statusReport struct {
	Status        string           `yaml:"status"`
	User          *session.Profile `yaml:"user,omitempty"`
	CachedProfile *session.Profile `yaml:"cachedProfile,omitempty"`
	LastError     string           `yaml:"lastError,omitempty"`
	Recoverable   *bool            `yaml:"recoverable,omitempty"`
	Guard         guardReport      `yaml:"guard"`
}

type guardReport struct {
	Path   string `yaml:"path"`
	Action string `yaml:"action"`
	Target string `yaml:"target,omitempty"`
}

// StatusMain validates the stored credential and prints the session
// snapshot plus the route-guard decision for the given path.
func StatusMain(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	ctrl, closeFn, err := initController(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	snap := ctrl.Bootstrap(ctx)

	if path == "" {
		path = cfg.Session.DefaultLanding
	}
	decision := guard.Evaluate(guard.Input{
		Status:       snap.Status,
		GraceElapsed: ctrl.GraceElapsed(),
		CurrentPath:  path,
		LoginSurface: cfg.Session.LoginSurface,
	})

	report := statusReport{
		Status:        snap.Status.String(),
		User:          snap.User,
		CachedProfile: snap.CachedProfile,
		Guard: guardReport{
			Path:   path,
			Action: decision.Action.String(),
			Target: decision.Target,
		},
	}
	if snap.LastError != nil {
		report.LastError = snap.LastError.Error()
		recoverable := serviceerr.Recoverable(snap.LastError)
		report.Recoverable = &recoverable
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling status report: %w", err)
	}

	_, err = out.Write(data)

	return err
}
