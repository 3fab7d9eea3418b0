// Package business wires the session controller, the request gateway,
// and the credential repository from configuration, and hosts the entry
// points the commands run.
package business

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/gateway"
	"github.com/openkcm/console-session/internal/session"
	sessionfile "github.com/openkcm/console-session/internal/session/file"
	sessionvalkey "github.com/openkcm/console-session/internal/session/valkey"
)

// tokenSource bridges the gateway's credential reads to the controller.
// It is bound after both exist, since each needs the other.
type tokenSource struct {
	ctrl *session.Controller
}

func (s *tokenSource) Token() string {
	if s.ctrl == nil {
		return ""
	}
	return s.ctrl.Token()
}

func initController(ctx context.Context, cfg *config.Config) (_ *session.Controller, closeFn func(), _ error) {
	repo, closeFn, err := initRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising the credential repository: %w", err)
	}

	src := &tokenSource{}

	gw, err := gateway.NewClient(cfg.API, src,
		gateway.WithInvalidationHandler(func(ctx context.Context) {
			src.ctrl.HandleSessionInvalid(ctx)
		}),
	)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("initialising the request gateway: %w", err)
	}

	ctrl := session.NewController(cfg.Session, repo, gw)
	src.ctrl = ctrl

	return ctrl, closeFn, nil
}

func initRepository(_ context.Context, cfg *config.Config) (session.Repository, func(), error) {
	switch cfg.CredentialStore.Backend {
	case "", "file":
		dir := cfg.CredentialStore.Path
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, nil, fmt.Errorf("resolving home directory: %w", err)
			}
			dir = filepath.Join(home, ".console-session", "state")
		}

		repo, err := sessionfile.NewRepository(dir)
		if err != nil {
			return nil, nil, err
		}

		return repo, func() {}, nil

	case "valkey":
		valkeyHost, err := commoncfg.LoadValueFromSourceRef(cfg.CredentialStore.ValKey.Host)
		if err != nil {
			return nil, nil, fmt.Errorf("loading valkey host: %w", err)
		}

		valkeyUsername, err := commoncfg.LoadValueFromSourceRef(cfg.CredentialStore.ValKey.User)
		if err != nil {
			return nil, nil, fmt.Errorf("loading valkey username: %w", err)
		}

		valkeyPassword, err := commoncfg.LoadValueFromSourceRef(cfg.CredentialStore.ValKey.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("loading valkey password: %w", err)
		}

		valkeyClient, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{string(valkeyHost)},
			Username:    string(valkeyUsername),
			Password:    string(valkeyPassword),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("creating a new valkey client: %w", err)
		}

		repo := sessionvalkey.NewRepository(valkeyClient, cfg.CredentialStore.ValKey.Prefix)

		return repo, valkeyClient.Close, nil

	default:
		return nil, nil, errors.New("unknown credential store backend")
	}
}
