package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	jwtAuth := New(&Config{JWTSecret: "secret"})
	require.NotNil(t, jwtAuth)

	tok, err := NewTokenWithSubject(jwtAuth, time.Hour, "farm-owner")
	require.NoError(t, err)

	sub, err := VerifyToken(jwtAuth, tok)
	require.NoError(t, err)
	assert.Equal(t, "farm-owner", sub)

	_, err = VerifyToken(New(&Config{JWTSecret: "other"}), tok)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	jwtAuth := New(&Config{JWTSecret: "secret"})
	_, ts, err := jwtAuth.Encode(map[string]interface{}{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)

	_, err = VerifyToken(jwtAuth, ts)
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	assert.Nil(t, New(&Config{}))
	_, err := NewTokenWithSubject(nil, time.Hour, "")
	assert.Error(t, err)
}
