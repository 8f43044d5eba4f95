package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("strong-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashed == "strong-password" {
		t.Fatal("hash must not be the plaintext")
	}

	if !Verify("strong-password", hashed) {
		t.Fatal("correct password must verify")
	}
	if Verify("wrong-password", hashed) {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	if a != b {
		t.Fatal("token hashing must be deterministic")
	}
	if a == "some-refresh-token" {
		t.Fatal("token hash must not be the plaintext")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if HashToken("another-token") == a {
		t.Fatal("different tokens must hash differently")
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("short") {
		t.Error("7 or fewer characters must be rejected")
	}
	if !ValidatePassword("12345678") {
		t.Error("8 characters must be accepted")
	}
}
