package testutil

import (
	"testing"

	"github.com/99designs/keyring"

	"github.com/nhle/reminder/internal/credential"
)

// NewTestKeyring returns a credential store backed by an in-memory keyring,
// seeded with one token per login ("token-<login>").
func NewTestKeyring(t *testing.T, logins ...string) *credential.KeyringStore {
	t.Helper()

	s := credential.NewKeyringStore(keyring.NewArrayKeyring(nil))
	for _, login := range logins {
		if err := s.Set(login, credential.New("token-"+login)); err != nil {
			t.Fatalf("seeding credential for %s: %v", login, err)
		}
	}
	return s
}
