package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	tok, err := issueToken(42, testSecret, 0)
	require.NoError(t, err)

	userID, err := verifyToken(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	tok, err := issueToken(42, testSecret, 0)
	require.NoError(t, err)

	_, err = verifyToken(tok, "another-secret")
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestVerifyTokenMalformed(t *testing.T) {
	_, err := verifyToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, errInvalidToken)

	_, err = verifyToken("", testSecret)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	tok, err := issueToken(42, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = verifyToken(tok, testSecret)
	assert.ErrorIs(t, err, errInvalidToken)
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	// two logins in the same second must not mint the same string, or the
	// second one would collide on the allow-list and fail
	first, err := issueToken(7, testSecret, 0)
	require.NoError(t, err)
	second, err := issueToken(7, testSecret, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, tokenHash(first), tokenHash(second))

	for _, tok := range []string{first, second} {
		userID, err := verifyToken(tok, testSecret)
		require.NoError(t, err)
		assert.Equal(t, 7, userID)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("abcdefg")
	require.NoError(t, err)
	assert.NotContains(t, string(hash), "abcdefg")

	assert.True(t, verifyPassword("abcdefg", hash))
	assert.False(t, verifyPassword("abcdefh", hash))
	assert.False(t, verifyPassword("", hash))
}

func TestTokenHashIsStable(t *testing.T) {
	assert.Equal(t, tokenHash("abc"), tokenHash("abc"))
	assert.NotEqual(t, tokenHash("abc"), tokenHash("abd"))
	assert.Len(t, tokenHash("abc"), 32)
}
