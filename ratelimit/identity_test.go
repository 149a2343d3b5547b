package ratelimit

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestIdentityFromToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-42"})

	identity, err := IdentityFromToken(token)
	if err != nil {
		t.Fatalf("IdentityFromToken: %v", err)
	}
	if identity != "user-42" {
		t.Errorf("identity = %q, want %q", identity, "user-42")
	}
}

func TestIdentityFromTokenIgnoresSignature(t *testing.T) {
	// The subject is readable even when the signature would not
	// verify under any key we hold.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})
	signed, err := token.SignedString([]byte("somebody-elses-secret"))
	if err != nil {
		t.Fatal(err)
	}

	identity, err := IdentityFromToken(signed)
	if err != nil {
		t.Fatalf("IdentityFromToken: %v", err)
	}
	if identity != "u" {
		t.Errorf("identity = %q, want %q", identity, "u")
	}
}

func TestIdentityFromTokenNoSubject(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"aud": "api"})

	if _, err := IdentityFromToken(token); !errors.Is(err, ErrNoSubject) {
		t.Errorf("error = %v, want ErrNoSubject", err)
	}
}

func TestIdentityFromTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		if _, err := IdentityFromToken(token); err == nil {
			t.Errorf("token %q should not parse", token)
		}
	}
}
