package jwtutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, 42, "alice")
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestParseToken_RejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", time.Hour, 1, "alice")
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	require.Error(t, err)
}

func TestParseToken_RejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", -time.Minute, 1, "alice")
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	require.Error(t, err)
}
