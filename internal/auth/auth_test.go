package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	Init()

	userID := uuid.New().String()
	token, err := CreateJWT(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := ResolvePrincipal(token)
	require.NoError(t, err)
	assert.Equal(t, userID, resolved)
}

func TestResolvePrincipalRejectsGarbage(t *testing.T) {
	Init()

	_, err := ResolvePrincipal("not-a-jwt")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreateHash("hunter2", Params)
	require.NoError(t, err)

	ok, err := ComparePasswordAndHash("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePasswordAndHash("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
