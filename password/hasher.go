package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPasswordBytes caps plaintext input when Config.MaxPasswordBytes is zero.
const DefaultMaxPasswordBytes = 1024

var (
	// ErrEmptyPassword is returned by Hash when the plaintext is empty.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when the plaintext exceeds the configured cap.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrUnsupportedAlgorithm is returned by New for unknown algorithm names.
	ErrUnsupportedAlgorithm = errors.New("unsupported password algorithm")
)

const (
	// AlgorithmArgon2id selects [Argon2].
	AlgorithmArgon2id = "argon2id"
	// AlgorithmBcrypt selects [Bcrypt].
	AlgorithmBcrypt = "bcrypt"
)

// Hasher hashes and verifies passwords. Implementations are safe for
// concurrent use after construction.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
}

// Config carries the tunables for every supported algorithm. Fields that do
// not apply to the selected algorithm are ignored.
type Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	BcryptCost       int
	MaxPasswordBytes int
}

const bcryptPrefix = "$2"

// New returns a Hasher that hashes with algorithm and verifies both Argon2id
// and bcrypt digests, picking the verifier from the digest prefix.
func New(algorithm string, cfg Config) (Hasher, error) {
	var (
		primary Hasher
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmArgon2id:
		primary, err = NewArgon2(cfg)
	case AlgorithmBcrypt:
		primary, err = NewBcrypt(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if err != nil {
		return nil, err
	}

	maxBytes := maxBytesOrDefault(cfg.MaxPasswordBytes)
	return &Mixed{
		primary: primary,
		argon2:  &Argon2{maxBytes: maxBytes},
		bcrypt:  &Bcrypt{maxBytes: min(maxBytes, bcryptMaxPasswordBytes)},
	}, nil
}

// Mixed hashes with one algorithm and verifies digests of either.
type Mixed struct {
	primary Hasher
	argon2  *Argon2
	bcrypt  *Bcrypt
}

// Primary returns the hasher used for new digests.
func (m *Mixed) Primary() Hasher {
	return m.primary
}

func (m *Mixed) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

// Verify only reads parameters from the digest, so the verify-only hashers
// carry no tunables beyond the plaintext cap.
func (m *Mixed) Verify(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return m.argon2.Verify(password, encodedHash)
	case strings.HasPrefix(encodedHash, bcryptPrefix):
		return m.bcrypt.Verify(password, encodedHash)
	default:
		return m.primary.Verify(password, encodedHash)
	}
}

func checkPlaintext(password string, maxBytes int) error {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) == 0 {
		return ErrEmptyPassword
	}
	if len(password) > maxBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func maxBytesOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxPasswordBytes
	}
	return n
}
