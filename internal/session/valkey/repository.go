// Package sessionvalkey persists the credential record in a valkey
// instance. Intended for shared operator hosts where the console state
// must not live on the local filesystem.
package sessionvalkey

import (
	"context"
	"errors"

	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/console-session/internal/session"
)

type ObjectType string

const (
	objectTypeCredential ObjectType = "credential"
	objectTypeProfile    ObjectType = "profile"
)

// The credential is keyed per operator host; a single console instance
// owns one record.
const recordID = "current"

var (
	ErrGetCredential   = errors.New("getting credential from store")
	ErrGetProfile      = errors.New("getting profile snapshot from store")
	ErrStoreCredential = errors.New("setting credential into storage")
)

type Repository struct {
	store *store
}

var _ = session.Repository(&Repository{})

func NewRepository(valkeyClient valkey.Client, prefix string) *Repository {
	return &Repository{
		store: newStore(valkeyClient, prefix),
	}
}

func (r *Repository) Load(ctx context.Context) (session.Record, error) {
	var cred session.Credential
	if err := r.store.Get(ctx, string(objectTypeCredential), recordID, &cred); err != nil {
		if errors.Is(err, errMiss) {
			return session.Record{}, nil
		}
		return session.Record{}, errors.Join(ErrGetCredential, err)
	}

	rec := session.Record{Credential: &cred}

	var profile session.Profile
	err := r.store.Get(ctx, string(objectTypeProfile), recordID, &profile)
	switch {
	case err == nil:
		rec.Profile = &profile
	case errors.Is(err, errMiss):
		// a credential without a snapshot is fine
	default:
		return session.Record{}, errors.Join(ErrGetProfile, err)
	}

	return rec, nil
}

func (r *Repository) Store(ctx context.Context, rec session.Record) error {
	if rec.Credential == nil {
		return errors.New("refusing to store a record without a credential")
	}

	var errs []error
	if err := r.store.Set(ctx, string(objectTypeCredential), recordID, rec.Credential); err != nil {
		errs = append(errs, err)
	}

	if rec.Profile == nil {
		// an absent snapshot must read back as absent, not as a zero value
		if err := r.store.Destroy(ctx, string(objectTypeProfile), recordID); err != nil {
			errs = append(errs, err)
		}
	} else if err := r.store.Set(ctx, string(objectTypeProfile), recordID, rec.Profile); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		// the two keys live and die together
		if err := r.Clear(ctx); err != nil {
			slogctx.Error(ctx, "couldn't clear record during rollback", "error", err)
			return err
		}
		return ErrStoreCredential
	}

	return nil
}

func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.Destroy(ctx, string(objectTypeCredential), recordID); err != nil {
		return err
	}

	return r.store.Destroy(ctx, string(objectTypeProfile), recordID)
}
