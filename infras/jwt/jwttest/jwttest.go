// Package jwttest mints staff access tokens for tests. The service only validates them;
// real ones come from the identity provider sharing JWT_ACCESS_SECRET.
package jwttest

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"teleconsult/config"
	"teleconsult/infras/jwt"
	"teleconsult/shared/timezone"
)

// AccessToken signs claims for userID with the configured access secret, valid for an hour.
func AccessToken(t testing.TB, cfg *config.Config, userID string, claims jwt.AccessClaims) string {
	t.Helper()

	now := timezone.Now()
	claims.RegisteredClaims = gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Issuer:    cfg.JWT.Issuer,
		Subject:   userID,
		ID:        uuid.NewString(),
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &claims).SignedString([]byte(cfg.JWT.AccessSecret))
	require.NoError(t, err)

	return token
}
