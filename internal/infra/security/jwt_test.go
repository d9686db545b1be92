package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	mgr := TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}

	token, err := mgr.Issue("usr-1", "host", time.Now())
	require.NoError(t, err)

	claims, err := mgr.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "host", claims.Role)
	assert.Equal(t, "stayloop", claims.Issuer)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	mgr := TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}

	token, err := mgr.Issue("usr-1", "guest", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = mgr.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	mgr := TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}
	other := TokenManager{Secret: []byte("other-secret"), TTL: time.Hour}

	token, err := mgr.Issue("usr-1", "guest", time.Now())
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	mgr := TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}
	_, err := mgr.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptHasher(t *testing.T) {
	hasher := BcryptHasher{Cost: 4}

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse"))
	assert.Error(t, hasher.Compare(hash, "wrong"))
}
