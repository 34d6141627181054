// Package jwt issues and verifies the bearer tokens of the reports API.
package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

const DefaultTTL = 24 * time.Hour

type Config struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`
}

// Enabled reports whether the API requires a token.
func (c *Config) Enabled() bool {
	return c.JWTSecret != ""
}

// New returns the HS256 signer for c, nil when auth is disabled.
func New(c *Config) *jwtauth.JWTAuth {
	if !c.Enabled() {
		return nil
	}
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil)
}

func VerifyToken(jwtAuth *jwtauth.JWTAuth, token string) (string, error) {
	t, err := jwtauth.VerifyToken(jwtAuth, token)
	if err != nil {
		return "", err
	}
	return t.Subject(), nil
}

// NewTokenWithSubject creates a JWT with optional subject claim. The subject
// names the operator in request logs.
func NewTokenWithSubject(jwtAuth *jwtauth.JWTAuth, ttl time.Duration, subject string) (string, error) {
	if jwtAuth == nil {
		return "", errors.New("jwt secret is not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := map[string]interface{}{
		"exp": time.Now().Add(ttl).Unix(),
	}
	if subject != "" {
		claims["sub"] = subject
	}
	_, ts, err := jwtAuth.Encode(claims)
	if err != nil {
		return "", err
	}
	return ts, nil
}
