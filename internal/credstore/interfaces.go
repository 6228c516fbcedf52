package credstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no secret is stored.
	ErrNotFound = errors.New("secret not found")

	// ErrReadOnly is returned by backends that cannot be written to.
	ErrReadOnly = errors.New("credential storage is read-only")
)

// Store reads and writes a single secret in persistent storage.
type Store interface {
	// Save persists the secret, overwriting any existing value.
	Save(ctx context.Context, secret string) error

	// Load returns the stored secret. Returns ErrNotFound if nothing is stored.
	Load(ctx context.Context) (string, error)

	// Delete removes the stored secret. Returns ErrNotFound if nothing is stored.
	Delete(ctx context.Context) error

	// Exists reports whether a secret is stored. A missing secret is (false, nil);
	// backend failures are returned as errors.
	Exists(ctx context.Context) (bool, error)
}

// exists implements Store.Exists on top of Load.
func exists(ctx context.Context, s Store) (bool, error) {
	_, err := s.Load(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
