package utils

import (
	"strings"
	"testing"
)

func TestCheckPassword(t *testing.T) {
	const password = "Portfolio-2024!"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == password {
		t.Fatal("HashPassword() returned the plaintext")
	}

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"correct", password, true},
		{"wrong", "Portfolio-2025!", false},
		{"empty", "", false},
		{"case sensitive", "portfolio-2024!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, hash); got != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, got, tt.expected)
			}
		})
	}
}

func TestHashPassword_Salted(t *testing.T) {
	hash1, _ := HashPassword("secret123")
	hash2, _ := HashPassword("secret123")
	if hash1 == hash2 {
		t.Error("same password should produce different hashes")
	}
}

func TestHashPassword_MultibyteUpToLimit(t *testing.T) {
	// 36 two-byte characters sit exactly at the bcrypt limit.
	password := strings.Repeat("é", MaxPasswordBytes/2)
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(password, hash) {
		t.Error("multibyte password did not verify")
	}

	if _, err := HashPassword(password + "x"); err == nil {
		t.Error("HashPassword should refuse passwords over the bcrypt limit")
	}
}

func TestCheckPassword_BadHash(t *testing.T) {
	for _, hash := range []string{"", "invalid_hash"} {
		if CheckPassword("secret123", hash) {
			t.Errorf("CheckPassword should return false for hash %q", hash)
		}
	}
}
