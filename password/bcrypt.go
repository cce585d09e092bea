package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes; refuse it instead of silently truncating.
const bcryptMaxPasswordBytes = 72

// Bcrypt hashes passwords with bcrypt at a fixed cost.
type Bcrypt struct {
	cost     int
	maxBytes int
}

// NewBcrypt returns a bcrypt hasher. A zero BcryptCost selects bcrypt.DefaultCost.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	maxBytes := maxBytesOrDefault(cfg.MaxPasswordBytes)
	if maxBytes > bcryptMaxPasswordBytes {
		maxBytes = bcryptMaxPasswordBytes
	}

	return &Bcrypt{cost: cost, maxBytes: maxBytes}, nil
}

// Hash returns a bcrypt digest of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	if err := checkPlaintext(password, b.maxBytes); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash.
func (b *Bcrypt) Verify(password string, encodedHash string) (bool, error) {
	if len(password) > b.maxBytes {
		return false, ErrPasswordTooLong
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
