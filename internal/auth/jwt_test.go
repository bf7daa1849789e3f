package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed secret so tests
// are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", 0, 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", 0, 0)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGeneratePair_ReturnsTwoJWTs(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair("user-123")
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}

	for name, token := range map[string]string{"access": pair.Access, "refresh": pair.Refresh} {
		if token == "" {
			t.Errorf("GeneratePair() returned empty %s token", name)
		}
		// JWTs have 3 dot-separated parts: header.payload.signature
		if parts := strings.Split(token, "."); len(parts) != 3 {
			t.Errorf("%s token doesn't look like a JWT: %d parts", name, len(parts))
		}
	}

	if pair.Access == pair.Refresh {
		t.Error("GeneratePair() access and refresh tokens are identical")
	}
}

func TestValidateAccess_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.GeneratePair("user-abc")
	if err != nil {
		t.Fatalf("GeneratePair() error = %v", err)
	}

	userID, err := ts.ValidateAccess(pair.Access)
	if err != nil {
		t.Fatalf("ValidateAccess() error = %v", err)
	}
	if userID != "user-abc" {
		t.Errorf("ValidateAccess() userID = %q, want %q", userID, "user-abc")
	}
}

func TestValidateRefresh_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, _ := ts.GeneratePair("user-abc")

	userID, err := ts.ValidateRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	if userID != "user-abc" {
		t.Errorf("ValidateRefresh() userID = %q, want %q", userID, "user-abc")
	}
}

func TestValidate_RejectsWrongTokenType(t *testing.T) {
	ts := newTestTokenService(t)

	pair, _ := ts.GeneratePair("user-abc")

	if _, err := ts.ValidateAccess(pair.Refresh); err == nil {
		t.Error("ValidateAccess() accepted a refresh token")
	}
	if _, err := ts.ValidateRefresh(pair.Access); err == nil {
		t.Error("ValidateRefresh() accepted an access token")
	}
}

func TestValidate_RejectsTamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, _ := ts.GeneratePair("user-abc")
	tampered := pair.Access[:len(pair.Access)-2] + "xx"

	if _, err := ts.ValidateAccess(tampered); err == nil {
		t.Error("ValidateAccess() accepted a tampered token")
	}
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("another-secret-also-long-enough", 0, 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	pair, _ := ts.GeneratePair("user-abc")

	if _, err := other.ValidateAccess(pair.Access); err == nil {
		t.Error("ValidateAccess() accepted a token signed with a different secret")
	}
}

func TestValidate_RejectsExpiredToken(t *testing.T) {
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", -time.Minute, 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// NewTokenService replaces non-positive TTLs with defaults, so build an
	// expired token directly.
	expired, err := ts.generate("user-abc", TokenAccess, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ts.ValidateAccess(expired); err == nil {
		t.Error("ValidateAccess() accepted an expired token")
	}
}
