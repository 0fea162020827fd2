package session

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T) map[string]string {
	t.Helper()
	origGet, origSet, origDelete := keyringGet, keyringSet, keyringDelete
	t.Cleanup(func() {
		keyringGet, keyringSet, keyringDelete = origGet, origSet, origDelete
	})

	store := map[string]string{}
	keyringGet = func(service, user string) (string, error) {
		v, ok := store[service+"/"+user]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringSet = func(service, user, password string) error {
		store[service+"/"+user] = password
		return nil
	}
	keyringDelete = func(service, user string) error {
		if _, ok := store[service+"/"+user]; !ok {
			return keyring.ErrNotFound
		}
		delete(store, service+"/"+user)
		return nil
	}
	return store
}

func TestKeyring_RoundTrip(t *testing.T) {
	store := stubKeyring(t)
	k := NewKeyring("")

	got, err := k.Load()
	if err != nil || got != "" {
		t.Fatalf("empty Load = %q, %v", got, err)
	}

	if err := k.Save("  tok-1  "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store["wallet/refresh_token"] != "tok-1" {
		t.Fatalf("store = %v", store)
	}
	if got, _ := k.Load(); got != "tok-1" {
		t.Fatalf("Load = %q", got)
	}

	if err := k.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := k.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if got, _ := k.Load(); got != "" {
		t.Fatalf("Load after clear = %q", got)
	}
}

func TestKeyring_SaveEmptyClears(t *testing.T) {
	store := stubKeyring(t)
	k := NewKeyring("custom")
	_ = k.Save("tok")
	if err := k.Save(" "); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := store["custom/refresh_token"]; ok {
		t.Fatal("blank save kept the old token")
	}
}

func TestKeyring_ReadError(t *testing.T) {
	stubKeyring(t)
	keyringGet = func(string, string) (string, error) { return "", errors.New("locked") }

	if _, err := NewKeyring("").Load(); err == nil {
		t.Fatal("expected error")
	}
}
