package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	signer := NewSessionSigner("secret", 7*24*time.Hour)

	token, issued, err := signer.GenerateJWT("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Id)

	claims, err := signer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, issued.Id, claims.Id)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.Expiry(), time.Minute)
}

func TestSessionTokenRejections(t *testing.T) {
	signer := NewSessionSigner("secret", time.Hour)
	token, _, err := signer.GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = NewSessionSigner("other", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, _, err := NewSessionSigner("secret", -time.Hour).GenerateJWT("user-1")
	require.NoError(t, err)
	_, err = signer.ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = signer.ValidateJWT("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{StandardClaims: jwt.StandardClaims{Subject: "user-1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = signer.ValidateJWT(unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.True(t, IsPasswordTooLong(err))
}

func TestIsEncodedImage(t *testing.T) {
	assert.True(t, IsEncodedImage("data:image/jpeg;base64,/9j/4AAQ"))
	assert.False(t, IsEncodedImage("https://cdn.example/a.jpg"))
	assert.False(t, IsEncodedImage(""))
}
