package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	p := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := p.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := p.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with the right password: error = %v", err)
	}
	if err := p.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with the wrong password should fail")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	p := NewPasswordServiceForTest(bcrypt.MinCost)

	// bcrypt silently truncates beyond 72 bytes; we reject instead.
	if _, err := p.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
	if _, err := p.Hash(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got %v", err)
	}
}

func TestNewPasswordServiceWithCost_ClampsLowCost(t *testing.T) {
	p := NewPasswordServiceWithCost(2)
	if p.cost != minCost {
		t.Errorf("cost = %d, want clamped to %d", p.cost, minCost)
	}

	p = NewPasswordServiceWithCost(13)
	if p.cost != 13 {
		t.Errorf("cost = %d, want 13", p.cost)
	}
}

func TestHash_Salted(t *testing.T) {
	p := NewPasswordServiceForTest(bcrypt.MinCost)

	h1, err := p.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := p.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}
