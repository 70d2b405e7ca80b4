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
		t.Errorf("Verify() with correct password error = %v", err)
	}
	if err := p.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() accepted the wrong password")
	}
}

func TestHash_SaltsEachCall(t *testing.T) {
	p := NewPasswordServiceForTest(bcrypt.MinCost)

	h1, _ := p.Hash("same password")
	h2, _ := p.Hash("same password")
	if h1 == h2 {
		t.Error("Hash() produced identical hashes — missing salt")
	}
}

// bcrypt silently truncates beyond 72 bytes; we reject instead.
func TestHash_RejectsOverlongPassword(t *testing.T) {
	p := NewPasswordServiceForTest(bcrypt.MinCost)

	if _, err := p.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a password longer than 72 bytes")
	}
}
