package credential

import (
	"fmt"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringStore_RoundTrip(t *testing.T) {
	s := NewKeyringStore(keyring.NewArrayKeyring(nil))

	require.NoError(t, s.Set("octocat", New("  ghp_secret \n")))

	got, err := s.Get("octocat")
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", got.Token())
	assert.False(t, got.Empty())

	require.NoError(t, s.Delete("octocat"))

	_, err = s.Get("octocat")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyringStore_DeleteMissing(t *testing.T) {
	s := NewKeyringStore(keyring.NewArrayKeyring(nil))
	assert.NoError(t, s.Delete("nobody"))
}

func TestCredential_Redacted(t *testing.T) {
	c := New("ghp_secret")

	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", c))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%s", c))
	assert.NotContains(t, fmt.Sprintf("%#v", c), "ghp_secret")
	assert.NotContains(t, fmt.Sprintf("%+v", c), "ghp_secret")
}
