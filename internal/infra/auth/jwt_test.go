package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("secret", 7*24*time.Hour)

	tok, exp, err := tokens.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)

	sub, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, _, err := NewTokens("secret", time.Hour).Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tokens.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	tokens.Now = time.Now
	_, err = tokens.Verify(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewTokens("secret", time.Hour).Verify("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
