package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"
	profileID := uuid.New()

	token, err := GenerateJWT(secret, profileID, "satoshi", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(secret, token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.ProfileID != profileID {
		t.Errorf("profile id = %s, want %s", claims.ProfileID, profileID)
	}
	if claims.Username != "satoshi" {
		t.Errorf("username = %q, want %q", claims.Username, "satoshi")
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret-a", uuid.New(), "u", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT("secret-b", token); err == nil {
		t.Error("expected parse failure with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	short, err := GenerateJWT("secret", uuid.New(), "u", time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("secret", short); err == nil {
		t.Error("expected parse failure for expired token")
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Error("CheckPassword rejected the original password")
	}
	if CheckPassword(hash, "wrong password!") {
		t.Error("CheckPassword accepted a wrong password")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short", 4); err == nil {
		t.Error("expected error for short password")
	}
}
