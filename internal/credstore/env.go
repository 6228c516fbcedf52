package credstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore provides read-only access to a secret stored in an environment variable.
// Suitable for managed deployments where the key is injected externally.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// Unlike a token store, an unset variable is not an error: it reads as a missing secret.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Load returns the secret from the environment variable.
func (e *EnvStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, ok := os.LookupEnv(e.envKey)
	if !ok || secret == "" {
		return "", fmt.Errorf("%w: environment variable %s is not set", ErrNotFound, e.envKey)
	}
	return secret, nil
}

// Save is not supported for environment variables (they are read-only).
func (e *EnvStore) Save(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("%w: environment variable %s", ErrReadOnly, e.envKey)
}

// Delete is not supported for environment variables (they are read-only).
func (e *EnvStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fmt.Errorf("%w: environment variable %s", ErrReadOnly, e.envKey)
}

// Exists reports whether the environment variable holds a non-empty value.
func (e *EnvStore) Exists(ctx context.Context) (bool, error) {
	return exists(ctx, e)
}
