package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "$argon2id$"

// Lower bounds for both configuration and parsed hashes.
const (
	minMemoryKB   uint32 = 8 * 1024
	minSaltLength uint32 = 16
	minKeyLength  uint32 = 16
)

// ErrMalformedHash is returned when a stored digest cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

var b64 = base64.RawStdEncoding

// Argon2 hashes with Argon2id and stores PHC strings.
type Argon2 struct {
	params   argon2Params
	salt     uint32
	maxBytes int
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// argon2Digest is a decoded PHC string.
type argon2Digest struct {
	argon2Params
	salt []byte
	key  []byte
}

// NewArgon2 validates cfg and returns an Argon2id hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("argon2: memory must be >= %d KB", minMemoryKB)
	case cfg.Time < 1:
		return nil, errors.New("argon2: time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("argon2: parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("argon2: salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("argon2: key length must be >= %d", minKeyLength)
	}

	return &Argon2{
		params: argon2Params{
			memory:  cfg.Memory,
			time:    cfg.Time,
			threads: cfg.Parallelism,
			keyLen:  cfg.KeyLength,
		},
		salt:     cfg.SaltLength,
		maxBytes: maxBytesOrDefault(cfg.MaxPasswordBytes),
	}, nil
}

// Hash derives a key from password with a fresh salt.
func (a *Argon2) Hash(password string) (string, error) {
	if err := checkPlaintext(password, a.maxBytes); err != nil {
		return "", err
	}

	d := argon2Digest{argon2Params: a.params, salt: make([]byte, a.salt)}
	if _, err := rand.Read(d.salt); err != nil {
		return "", fmt.Errorf("argon2: read salt: %w", err)
	}
	d.key = d.derive(password)
	return d.encode(), nil
}

// Verify reports whether password matches encoded. A mismatch is (false, nil);
// an undecodable digest wraps ErrMalformedHash.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if len(password) > a.maxBytes {
		return false, ErrPasswordTooLong
	}
	d, err := decodeArgon2(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(d.derive(password), d.key) == 1, nil
}

func (d argon2Digest) derive(password string) []byte {
	return argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.threads, d.keyLen)
}

// encode renders $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (d argon2Digest) encode() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, d.memory, d.time, d.threads,
		b64.EncodeToString(d.salt), b64.EncodeToString(d.key))
}

func decodeArgon2(encoded string) (argon2Digest, error) {
	var d argon2Digest
	rest, ok := strings.CutPrefix(encoded, argon2Prefix)
	if !ok {
		return d, fmt.Errorf("%w: not argon2id", ErrMalformedHash)
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return d, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedHash, len(fields))
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil || version != argon2.Version {
		return d, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, fields[0])
	}
	var threads uint32
	n, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &d.memory, &d.time, &threads)
	if err != nil || n != 3 || d.memory < minMemoryKB || d.time < 1 || threads < 1 || threads > 255 {
		return d, fmt.Errorf("%w: bad parameters %q", ErrMalformedHash, fields[1])
	}
	d.threads = uint8(threads)

	if d.salt, err = decodeB64(fields[2]); err != nil || len(d.salt) < int(minSaltLength) {
		return d, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if d.key, err = decodeB64(fields[3]); err != nil || len(d.key) == 0 {
		return d, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}
	d.keyLen = uint32(len(d.key))
	return d, nil
}

// decodeB64 accepts padded and unpadded standard base64.
func decodeB64(s string) ([]byte, error) {
	return b64.DecodeString(strings.TrimRight(s, "="))
}
