package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("oyster-festival-2026")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash has unexpected format: %s", hash)
	}

	ok, err := CheckPassword("oyster-festival-2026", hash)
	if err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}

	ok, err = CheckPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same-input")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password must differ (random salt)")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	tests := []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	}

	for _, h := range tests {
		if _, err := CheckPassword("pw", h); err == nil {
			t.Errorf("CheckPassword with hash %q: expected error", h)
		}
	}
}
