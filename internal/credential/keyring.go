package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "reminder"

// keyPrefix namespaces GitHub tokens inside the shared keyring service.
const keyPrefix = "github-pat-"

// ErrNotFound is returned when no credential is stored for a login.
var ErrNotFound = errors.New("credential not found")

// Credential is an opaque handle to an account's token. Its contents are
// only read by the fetch client; formatting it never reveals the token.
type Credential struct {
	token string
}

// New wraps a raw token.
func New(token string) Credential {
	return Credential{token: strings.TrimSpace(token)}
}

// Token returns the raw token for the transport layer.
func (c Credential) Token() string { return c.token }

// Empty reports whether no token is held.
func (c Credential) Empty() bool { return c.token == "" }

// String implements fmt.Stringer without leaking the token.
func (c Credential) String() string { return "[redacted]" }

// GoString implements fmt.GoStringer without leaking the token.
func (c Credential) GoString() string { return "credential.Credential{[redacted]}" }

// Store supplies credentials per account login.
type Store interface {
	Get(login string) (Credential, error)
	Set(login string, cred Credential) error
	Delete(login string) error
}

// KeyringStore implements Store on top of the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// OpenKeyring opens the platform keyring, falling back to an encrypted file
// under fileDir when no native backend is available.
func OpenKeyring(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("reminder-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// Get retrieves the credential stored for login.
func (s *KeyringStore) Get(login string) (Credential, error) {
	item, err := s.ring.Get(keyPrefix + login)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Credential{}, fmt.Errorf("getting credential for %q: %w", login, ErrNotFound)
		}
		return Credential{}, fmt.Errorf("getting credential for %q: %w", login, err)
	}

	return New(string(item.Data)), nil
}

// Set stores cred for login, replacing any previous value.
func (s *KeyringStore) Set(login string, cred Credential) error {
	err := s.ring.Set(keyring.Item{
		Key:         keyPrefix + login,
		Data:        []byte(cred.token),
		Label:       "GitHub token for " + login,
		Description: "reminder personal access token",
	})
	if err != nil {
		return fmt.Errorf("setting credential for %q: %w", login, err)
	}

	return nil
}

// Delete removes the credential for login. Deleting a missing entry is not
// an error.
func (s *KeyringStore) Delete(login string) error {
	err := s.ring.Remove(keyPrefix + login)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential for %q: %w", login, err)
	}

	return nil
}
