package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(Config{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}

	ok, err := hasher.Verify("pw1", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed: ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("pw2", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail verification")
	}
}

func TestBcryptRejectsOutOfRangeCost(t *testing.T) {
	if _, err := NewBcrypt(Config{BcryptCost: 2}); err == nil {
		t.Fatal("expected cost below minimum to be rejected")
	}
	if _, err := NewBcrypt(Config{BcryptCost: 40}); err == nil {
		t.Fatal("expected cost above maximum to be rejected")
	}
}

func TestBcryptCapsPasswordLength(t *testing.T) {
	hasher, err := NewBcrypt(Config{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	if _, err := hasher.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestBcryptVerifyMalformedHash(t *testing.T) {
	hasher, err := NewBcrypt(Config{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	if _, err := hasher.Verify("pw1", "not-a-bcrypt-hash"); err == nil {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestNewSelectsAlgorithm(t *testing.T) {
	h, err := New("", secureConfig())
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := h.(*Mixed).Primary().(*Argon2); !ok {
		t.Fatalf("expected default algorithm to be argon2id, got %T", h.(*Mixed).Primary())
	}

	h, err = New("BCRYPT", Config{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("New bcrypt: %v", err)
	}
	if _, ok := h.(*Mixed).Primary().(*Bcrypt); !ok {
		t.Fatalf("expected bcrypt hasher, got %T", h.(*Mixed).Primary())
	}

	if _, err := New("md5", Config{}); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestNewVerifiesDigestsOfEitherAlgorithm(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	argon := mustArgon2(t, cheapConfig())
	modern, err := argon.Hash("pw1")
	if err != nil {
		t.Fatalf("argon2 Hash: %v", err)
	}

	for _, algorithm := range []string{AlgorithmArgon2id, AlgorithmBcrypt} {
		cfg := cheapConfig()
		cfg.BcryptCost = bcrypt.MinCost
		h, err := New(algorithm, cfg)
		if err != nil {
			t.Fatalf("New(%s): %v", algorithm, err)
		}

		for name, digest := range map[string]string{"bcrypt": string(legacy), "argon2id": modern} {
			if ok, err := h.Verify("pw1", digest); err != nil || !ok {
				t.Fatalf("%s hasher verifying %s digest: ok=%v err=%v", algorithm, name, ok, err)
			}
			if ok, err := h.Verify("pw2", digest); err != nil || ok {
				t.Fatalf("%s hasher accepted wrong password for %s digest: ok=%v err=%v", algorithm, name, ok, err)
			}
		}
	}

	h, _ := New(AlgorithmArgon2id, cheapConfig())
	if _, err := h.Verify("pw1", "plaintext"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash for unknown digest, got %v", err)
	}
}
