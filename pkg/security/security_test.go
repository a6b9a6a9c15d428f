package security

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgonRoundTrip(t *testing.T) {
	a := &Argon2id{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

	hash, err := a.Hash("correct horse")
	require.NoError(t, err)

	ok, err := a.Verify("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Verify("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Verify("x", "plain")
	assert.ErrorIs(t, err, ErrHashFormat)
}

func TestMakeEmailToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tok, err := MakeEmailToken("user1", now)
	require.NoError(t, err)
	assert.Len(t, tok.Token, tokenSize*2)
	assert.Equal(t, now.Add(24*time.Hour), tok.ExpiresAt)
	assert.False(t, tok.Used)

	_, err = MakeEmailToken("", now)
	assert.Error(t, err)
}

func TestAuthToken(t *testing.T) {
	viper.Set("jwt.secret", "test-secret")
	viper.Set("jwt.ttl_hours", 1)
	t.Cleanup(func() { viper.Set("jwt.secret", "") })

	s, err := SignAuthToken("user1", "ADMIN", time.Now())
	require.NoError(t, err)

	claims, err := ParseAuthToken(s)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)

	expired, err := SignAuthToken("user1", "ADMIN", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseAuthToken(expired)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	viper.Set("jwt.secret", "other-secret")
	_, err = ParseAuthToken(s)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
