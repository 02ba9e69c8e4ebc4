package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestSecretHasherHash(t *testing.T) {
	hasher := NewSecretHasher(bcrypt.MinCost)
	password := "Str0ng!pass"

	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if hash == "" {
		t.Error("Hash() returned empty string")
	}
	if hash == password {
		t.Error("Hash() returned unhashed password")
	}

	// Same password hashes differently due to per-hash salt
	hash2, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == hash2 {
		t.Error("Hash() should produce different hashes due to salt")
	}
}

func TestSecretHasherVerify(t *testing.T) {
	hasher := NewSecretHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
		hash      string
		want      bool
		wantErr   bool
	}{
		{name: "correct password", plaintext: "Str0ng!pass", hash: hash, want: true},
		{name: "wrong password", plaintext: "Wr0ng!pass", hash: hash, want: false},
		{name: "empty password", plaintext: "", hash: hash, want: false},
		{name: "malformed hash", plaintext: "Str0ng!pass", hash: "not-a-bcrypt-hash", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := hasher.Verify(tt.plaintext, tt.hash)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSecretHasherNeedsRehash(t *testing.T) {
	low := NewSecretHasher(bcrypt.MinCost)
	hash, err := low.Hash("Str0ng!pass")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if low.NeedsRehash(hash) {
		t.Error("NeedsRehash() = true for hash at configured cost")
	}

	higher := NewSecretHasher(bcrypt.MinCost + 1)
	if !higher.NeedsRehash(hash) {
		t.Error("NeedsRehash() = false for hash at outdated cost")
	}

	if low.NeedsRehash("garbage") {
		t.Error("NeedsRehash() = true for unparseable hash")
	}
}

func TestNewSecretHasherClampsCost(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "below range", cost: 0, want: DefaultHashCost},
		{name: "above range", cost: 99, want: DefaultHashCost},
		{name: "in range", cost: bcrypt.MinCost, want: bcrypt.MinCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher := NewSecretHasher(tt.cost)
			if hasher.cost != tt.want {
				t.Errorf("cost = %d, want %d", hasher.cost, tt.want)
			}
		})
	}
}
