// Package sessionfile persists the credential record in two JSON
// documents under a private state directory. It is the default backend
// for single-operator installations.
package sessionfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/session"
)

const (
	credentialFile = "credential.json"
	profileFile    = "profile.json"
)

type Repository struct {
	dir string
}

var _ = session.Repository(&Repository{})

// NewRepository creates the state directory if needed. The directory is
// private to the operator: the credential file holds a live token.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	return &Repository{dir: dir}, nil
}

func (r *Repository) Load(_ context.Context) (session.Record, error) {
	var rec session.Record

	cred, err := readJSON[session.Credential](filepath.Join(r.dir, credentialFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return session.Record{}, nil
		}
		return session.Record{}, fmt.Errorf("reading credential: %w", err)
	}
	rec.Credential = cred

	profile, err := readJSON[session.Profile](filepath.Join(r.dir, profileFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return session.Record{}, fmt.Errorf("reading profile snapshot: %w", err)
	}
	rec.Profile = profile

	return rec, nil
}

func (r *Repository) Store(ctx context.Context, rec session.Record) error {
	if rec.Credential == nil {
		return errors.New("refusing to store a record without a credential")
	}

	if err := writeJSON(filepath.Join(r.dir, credentialFile), rec.Credential, 0o600); err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}

	if rec.Profile == nil {
		// an absent snapshot must read back as absent, not as a zero value
		err := os.Remove(filepath.Join(r.dir, profileFile))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing stale profile snapshot: %w", err)
		}

		return nil
	}

	if err := writeJSON(filepath.Join(r.dir, profileFile), rec.Profile, 0o600); err != nil {
		// the two documents live and die together
		if rmErr := r.Clear(ctx); rmErr != nil {
			slogctx.Error(ctx, "couldn't roll back a partial credential write", "error", rmErr)
			return rmErr
		}
		return fmt.Errorf("writing profile snapshot: %w", err)
	}

	return nil
}

func (r *Repository) Clear(_ context.Context) error {
	var errs []error
	for _, name := range []string{credentialFile, profileFile} {
		err := os.Remove(filepath.Join(r.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func readJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// a document holding null, e.g. written by an earlier version, reads
	// as absent
	if s := strings.TrimSpace(string(data)); s == "" || s == "null" {
		return nil, fs.ErrNotExist
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", filepath.Base(path), err)
	}

	return &v, nil
}

func writeJSON(path string, v any, perm os.FileMode) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
