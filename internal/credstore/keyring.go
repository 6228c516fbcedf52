package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Save writes the secret to the system keyring, overwriting any existing value.
func (k *KeyringStore) Save(ctx context.Context, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, secret)
}

// Load returns the secret from the system keyring.
func (k *KeyringStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, err := keyring.Get(k.service, k.user)
	if err != nil {
		return "", k.translate(err)
	}
	return secret, nil
}

// Delete removes the secret from the system keyring.
func (k *KeyringStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return k.translate(keyring.Delete(k.service, k.user))
}

// Exists reports whether the keyring holds a secret for the service/user pair.
func (k *KeyringStore) Exists(ctx context.Context) (bool, error) {
	return exists(ctx, k)
}

// translate maps keyring errors onto package sentinels, keeping backend detail.
func (k *KeyringStore) translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w in keyring for service %s, user %s", ErrNotFound, k.service, k.user)
	}
	return fmt.Errorf("keyring: %w", err)
}
