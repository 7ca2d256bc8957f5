package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestStateTokenRoundTrip(t *testing.T) {
	state, err := GenerateStateToken(testSecret, 42)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	userID, ok := VerifyStateToken(testSecret, state)
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)
}

func TestStateTokenSurvivesURLEncoding(t *testing.T) {
	// JWTs are base64url; the token must not contain characters a provider
	// redirect would mangle.
	state, err := GenerateStateToken(testSecret, 7)
	require.NoError(t, err)

	for _, c := range state {
		assert.NotContains(t, []rune{'+', '/', '=', ' ', '&', '?'}, c)
	}
}

func TestStateTokenRejectsTampering(t *testing.T) {
	state, err := GenerateStateToken(testSecret, 42)
	require.NoError(t, err)

	tampered := state[:len(state)-2] + "xx"
	_, ok := VerifyStateToken(testSecret, tampered)
	assert.False(t, ok)
}

func TestStateTokenRejectsWrongKey(t *testing.T) {
	state, err := GenerateStateToken(testSecret, 42)
	require.NoError(t, err)

	_, ok := VerifyStateToken("another-secret-key-entirely-here", state)
	assert.False(t, ok)
}

func TestStateTokenRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "not-a-token", "a.b.c", "!!!!"} {
		_, ok := VerifyStateToken(testSecret, input)
		assert.False(t, ok, "input %q should not verify", input)
	}
}

func TestStateTokenRejectsExpired(t *testing.T) {
	expired, err := GenerateToken(testSecret, "42", -time.Minute)
	require.NoError(t, err)

	_, ok := VerifyStateToken(testSecret, expired)
	assert.False(t, ok)
}

func TestStateTokenRejectsNonNumericSubject(t *testing.T) {
	token, err := GenerateToken(testSecret, "not-a-number", time.Minute)
	require.NoError(t, err)

	_, ok := VerifyStateToken(testSecret, token)
	assert.False(t, ok)
}
