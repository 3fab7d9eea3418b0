package business

import (
	"context"
	"errors"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/session"
)

// AgentMain keeps an authenticated session alive until the process is
// stopped: it validates the stored credential, arms the refresh
// scheduler, and reacts to forced invalidation.
func AgentMain(ctx context.Context, cfg *config.Config) error {
	ctrl, closeFn, err := initController(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := session.InitMeters(ctx, cfg.Application.Name); err != nil {
		return err
	}

	ctrl.Subscribe(func(ev session.Event) {
		slogctx.Info(ctx, "Session state changed",
			"status", ev.Status.String(),
			"generation", ev.Generation,
			"redirect", ev.Redirect,
			"error", ev.Err,
		)
	})

	snap := ctrl.Bootstrap(ctx)
	if !snap.Status.Authenticated() {
		return errors.New("no valid session; run `console-session login` first")
	}

	slogctx.Info(ctx, "Session agent running", "user_id", snap.User.ID)

	<-ctx.Done()

	// teardown must cancel the timer so it can never fire against a
	// finished process context
	ctrl.Scheduler().Cancel()

	return nil
}
