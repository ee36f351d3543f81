package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNameClaim(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign("user-1", "Alice", time.Minute)
	require.NoError(t, err)

	name, err := j.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}

func TestResolveFallsBackToSub(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign("user-1", "", time.Minute)
	require.NoError(t, err)

	name, err := j.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", name)
}

func TestResolveRejectsGarbage(t *testing.T) {
	j := NewJWT("test-secret")

	_, err := j.Resolve(context.Background(), "not.a.token")
	assert.Error(t, err)
}

func TestResolveRejectsWrongSecret(t *testing.T) {
	issuer := NewJWT("secret-a")
	verifier := NewJWT("secret-b")

	token, err := issuer.Sign("user-1", "Alice", time.Minute)
	require.NoError(t, err)

	_, err = verifier.Resolve(context.Background(), token)
	assert.Error(t, err)
}

func TestResolveRejectsExpired(t *testing.T) {
	j := NewJWT("test-secret")

	token, err := j.Sign("user-1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = j.Resolve(context.Background(), token)
	assert.Error(t, err)
}
