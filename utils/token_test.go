package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("sess-123", time.Hour)
	require.NoError(t, err)

	id, err := ExtractSessionIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-123", id)
}

func TestExpiredSessionTokenRejected(t *testing.T) {
	token, err := GenerateSessionToken("sess-123", -time.Minute)
	require.NoError(t, err)

	_, err = ExtractSessionIDFromToken(token)
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := ExtractSessionIDFromToken("not.a.token")
	assert.Error(t, err)
}
