package secrets

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func TestAllowedBackends(t *testing.T) {
	if _, err := allowedBackends("auto"); err != nil {
		t.Fatalf("auto backend: %v", err)
	}
	backends, err := allowedBackends("file")
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	if len(backends) != 1 || backends[0] != keyring.FileBackend {
		t.Fatalf("unexpected backends: %v", backends)
	}
	if _, err := allowedBackends("bogus"); !errors.Is(err, errInvalidKeyringBackend) {
		t.Fatalf("expected invalid backend error, got %v", err)
	}
}

func TestFilePasswordFuncPrefersEnv(t *testing.T) {
	prompt := fileKeyringPasswordFuncFrom("hunter2", true, false)
	got, err := prompt("passphrase")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("expected env password, got %q", got)
	}
}

func TestFilePasswordFuncWithoutTTY(t *testing.T) {
	prompt := fileKeyringPasswordFuncFrom("", false, false)
	if _, err := prompt("passphrase"); !errors.Is(err, errNoTTY) {
		t.Fatalf("expected no-TTY error, got %v", err)
	}
}

func TestGetPasswordRoundTrip(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)
	restore := openKeyringFunc
	openKeyringFunc = func() (keyring.Keyring, error) { return ring, nil }
	defer func() { openKeyringFunc = restore }()

	if err := SetPassword("User@Example.com", "secret"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	// Lookup is case-insensitive on the username.
	got, err := GetPassword("user@example.com")
	if err != nil {
		t.Fatalf("get password: %v", err)
	}
	if got != "secret" {
		t.Fatalf("expected stored password, got %q", got)
	}

	if _, err := GetPassword("other@example.com"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestSetPasswordValidation(t *testing.T) {
	if err := SetPassword("", "x"); !errors.Is(err, errMissingUsername) {
		t.Fatalf("expected missing username error, got %v", err)
	}
	if err := SetPassword("user@example.com", ""); !errors.Is(err, errMissingPassword) {
		t.Fatalf("expected missing password error, got %v", err)
	}
}
