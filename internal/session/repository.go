package session

import "context"

// Repository persists the credential record between runs of the console.
// The controller is its only writer.
type Repository interface {
	// Load returns the stored record. A zero Record with a nil
	// Credential means nothing is stored; that is not an error.
	Load(ctx context.Context) (Record, error)
	// Store writes the token and the profile snapshot as one logical
	// transaction: a partial write must be rolled back.
	Store(ctx context.Context, rec Record) error
	// Clear removes both. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}
