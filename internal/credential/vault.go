// Package credential stores mailbox passwords and the drafting API key in
// the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "mailcache"

// Well-known keys.
const (
	AnthropicAPIKey = "anthropic-api-key"
)

// IMAPPassword is the key of a user's mailbox password.
func IMAPPassword(user string) string { return "imap-password-" + user }

// SMTPPassword is the key of a user's outgoing mail password.
func SMTPPassword(user string) string { return "smtp-password-" + user }

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Config selects the keyring backends. The zero value uses the platform
// keyrings, then an encrypted file under Dir.
type Config struct {
	// Dir holds the file backend; empty means ~/.config/mailcache/credentials.
	Dir string

	// Backends restricts the backends tried, in order.
	Backends []keyring.BackendType

	// FilePassword encrypts the file backend.
	FilePassword string
}

// Vault reads and writes credentials.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a vault over the first available backend.
func Open(cfg Config) (*Vault, error) {
	if cfg.Dir == "" {
		cfg.Dir = "~/.config/mailcache/credentials"
	}
	if len(cfg.Backends) == 0 {
		cfg.Backends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
	}
	if cfg.FilePassword == "" {
		cfg.FilePassword = "mailcache-file-key"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          cfg.Backends,
		FileDir:                  filepath.Clean(cfg.Dir),
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.FilePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// Get retrieves a credential value by key.
func (v *Vault) Get(key string) (string, error) {
	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (v *Vault) Set(key, value string) error {
	if err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (v *Vault) Delete(key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Lookup returns the environment variable envVar when set, otherwise the
// stored credential.
func (v *Vault) Lookup(key, envVar string) (string, error) {
	if envVar != "" {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}
	return v.Get(key)
}
