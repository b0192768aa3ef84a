package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAndLookup(t *testing.T) {
	c := New(16)
	token := []byte("token-one")

	p, err := c.Update(token, func([]byte) (Principal, error) {
		return Principal{Subject: "alice"}, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Subject)

	got := c.TryGetAuthorizedPrincipal(token)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Subject)
}

func TestLookupMissAfterFreshnessExpires(t *testing.T) {
	c := New(16)
	c.ConfigureFreshnessInterval(10 * time.Millisecond)
	token := []byte("token-two")

	_, err := c.Update(token, func([]byte) (Principal, error) { return Principal{Subject: "bob"}, nil }, nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.TryGetAuthorizedPrincipal(token))
}

func TestTryUpdateReturnsNilOnFailure(t *testing.T) {
	c := New(16)
	token := []byte("token-three")

	got := c.TryUpdate(token, func([]byte) (Principal, error) {
		return Principal{}, errors.New("upstream unavailable")
	}, nil)
	assert.Nil(t, got)
}

func TestEvict(t *testing.T) {
	c := New(16)
	token := []byte("token-four")
	_, err := c.Update(token, func([]byte) (Principal, error) { return Principal{Subject: "carol"}, nil }, nil)
	require.NoError(t, err)

	c.Evict(token)
	assert.Nil(t, c.TryGetAuthorizedPrincipal(token))
}
