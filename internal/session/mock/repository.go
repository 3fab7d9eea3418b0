package sessionmock

import (
	"context"
	"sync"

	"github.com/openkcm/console-session/internal/session"
)

type RepositoryOption func(*Repository)

// Repository is an in-memory credential store for tests, with injectable
// per-operation errors.
type Repository struct {
	mu  sync.Mutex
	rec session.Record

	loadErr, storeErr, clearErr error

	stores, clears int
}

func WithRecord(rec session.Record) RepositoryOption {
	return func(r *Repository) { r.rec = rec }
}

func WithLoadError(err error) RepositoryOption {
	return func(r *Repository) { r.loadErr = err }
}

func WithStoreError(err error) RepositoryOption {
	return func(r *Repository) { r.storeErr = err }
}

func WithClearError(err error) RepositoryOption {
	return func(r *Repository) { r.clearErr = err }
}

var _ = session.Repository(&Repository{})

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *Repository) Load(_ context.Context) (session.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadErr != nil {
		return session.Record{}, r.loadErr
	}
	return r.rec, nil
}

func (r *Repository) Store(_ context.Context, rec session.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stores++
	if r.storeErr != nil {
		return r.storeErr
	}
	r.rec = rec

	return nil
}

func (r *Repository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clears++
	if r.clearErr != nil {
		return r.clearErr
	}
	r.rec = session.Record{}

	return nil
}

// Record returns the currently stored record.
func (r *Repository) Record() session.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rec
}

// StoreCalls and ClearCalls report how often the controller wrote.
func (r *Repository) StoreCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stores
}

func (r *Repository) ClearCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.clears
}
