package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/you/authsvc/domain"
)

func TestChangeTokenSigner_SignAndUnwrap(t *testing.T) {
	signer := NewChangeTokenSigner("test-secret-key", "authsvc-test", 30*time.Minute)
	secret := strings.Repeat("ab", 32)

	signed, err := signer.Sign(42, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := signer.Unwrap(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.AccountID != 42 {
		t.Errorf("expected account 42, got %d", payload.AccountID)
	}
	if payload.Secret != secret {
		t.Errorf("expected row secret preserved, got %q", payload.Secret)
	}
}

func TestChangeTokenSigner_Unwrap_Rejections(t *testing.T) {
	signer := NewChangeTokenSigner("test-secret-key", "authsvc-test", 30*time.Minute)
	secret := strings.Repeat("ab", 32)

	good, err := signer.Sign(42, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherKey := NewChangeTokenSigner("other-key", "authsvc-test", 30*time.Minute)
	wrongKey, err := otherKey.Sign(42, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expiredSigner := NewChangeTokenSigner("test-secret-key", "authsvc-test", -time.Minute)
	expired, err := expiredSigner.Sign(42, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same key, different issuer: the envelope must stay scoped to the
	// service that minted it.
	otherIssuer := NewChangeTokenSigner("test-secret-key", "some-other-service", 30*time.Minute)
	wrongIssuer, err := otherIssuer.Sign(42, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "tampered", token: good + "x"},
		{name: "wrong key", token: wrongKey},
		{name: "expired", token: expired},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "wrong purpose", token: signOtherPurpose(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.Unwrap(tt.token); err != domain.ErrChangeTokenInvalid {
				t.Errorf("expected ErrChangeTokenInvalid, got %v", err)
			}
		})
	}
}

// signOtherPurpose builds a structurally valid token whose purpose claim
// does not mark it as a password-change envelope. A session access token
// must never unlock the change flow.
func signOtherPurpose(t *testing.T) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"account_id": uint(42),
		"secret":     strings.Repeat("ab", 32),
		"purpose":    "session",
		"iss":        "authsvc-test",
		"iat":        now.Unix(),
		"exp":        now.Add(30 * time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return signed
}
