package jwt

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(7, "priya@tripeasy.in", "agent", "secret", 15)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.IdentityID != 7 {
		t.Fatalf("expected identity 7, got %d", claims.IdentityID)
	}
	if claims.Email != "priya@tripeasy.in" || claims.Role != "agent" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(7, "priya@tripeasy.in", "agent", "secret", 15)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateAccessToken(token, "other-secret"); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(7, "priya@tripeasy.in", "agent", "secret", -1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateAccessToken(token, "secret"); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-1", "refresh-secret", 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateRefreshToken(token, "refresh-secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.IdentityID != 7 || claims.TokenID != "token-id-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Signed with the refresh secret, so the access secret rejects it
	if _, err := ValidateAccessToken(token, "access-secret"); err == nil {
		t.Fatal("a refresh token must not validate under the access secret")
	}
}

func TestGetExpiryTime(t *testing.T) {
	expiry := GetExpiryTime(7)
	lower := time.Now().Add(6 * 24 * time.Hour)
	upper := time.Now().Add(8 * 24 * time.Hour)
	if expiry.Before(lower) || expiry.After(upper) {
		t.Fatalf("expiry %v out of expected window", expiry)
	}
}
