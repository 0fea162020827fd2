// Package session persists the refresh token in the system credential store.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	DefaultService = "wallet"
	account        = "refresh_token"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// Keyring stores one refresh token per service name.
type Keyring struct {
	service string
}

func NewKeyring(service string) *Keyring {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

// Load returns "" when nothing was saved.
func (k *Keyring) Load() (string, error) {
	secret, err := keyringGet(k.service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring item service=%q account=%q: %w", k.service, account, err)
	}
	return strings.TrimSpace(secret), nil
}

func (k *Keyring) Save(refreshToken string) error {
	trimmed := strings.TrimSpace(refreshToken)
	if trimmed == "" {
		return k.Clear()
	}
	if err := keyringSet(k.service, account, trimmed); err != nil {
		return fmt.Errorf("failed to store keyring item service=%q account=%q: %w", k.service, account, err)
	}
	return nil
}

// Clear removes the saved token. Clearing an empty keyring is not an error.
func (k *Keyring) Clear() error {
	err := keyringDelete(k.service, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keyring item service=%q account=%q: %w", k.service, account, err)
	}
	return nil
}
