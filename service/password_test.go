package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPasswordHasher_HashAndVerify ensures that hashing and verification agree.
func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	password := "mySecretPassword123"

	hashed, err := hasher.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashed)

	ok, err := hasher.Verify(password, hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("notMyPassword", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	atLimit := strings.Repeat("a", MaxPasswordBytes)
	overLimit := atLimit + "a"

	_, err := hasher.Hash(atLimit)
	assert.NoError(t, err)

	_, err = hasher.Hash(overLimit)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = hasher.Verify(overLimit, "$2a$04$irrelevant")
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHasher_MultiByteLength(t *testing.T) {
	// 25 three-byte runes is 75 bytes even though it is 25 characters.
	password := strings.Repeat("한", 25)
	assert.ErrorIs(t, CheckLength(password), ErrPasswordTooLong)
}

func TestPasswordHasher_CorruptHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	ok, err := hasher.Verify("whatever", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
}
