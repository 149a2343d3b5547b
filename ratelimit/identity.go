package ratelimit

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityFromToken extracts the subject claim from a JWT to use as
// the rate-limit identity. The token is decoded without signature
// verification; authenticating the token is the caller's job, this
// only needs a stable per-caller key.
func IdentityFromToken(token string) (string, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("ratelimit: parse token: %w", err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("ratelimit: read subject: %w", err)
	}
	if subject == "" {
		return "", ErrNoSubject
	}
	return subject, nil
}
