package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the JWS algorithm family used to sign tokens.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

const maxLeeway = 2 * time.Minute

var (
	// ErrMissingEmail is returned for tokens without an email claim.
	ErrMissingEmail = errors.New("token has no email claim")
	// ErrInvalidToken wraps every verification failure.
	ErrInvalidToken = errors.New("invalid token")
)

// Config holds signing keys and validation policy for a [Manager].
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for hs256, or an Ed25519 private key
	// (raw 64 bytes or PEM) for ed25519.
	PrivateKey []byte
	// PublicKey verifies ed25519 tokens. When empty it is derived from
	// PrivateKey.
	PublicKey []byte
	Issuer    string
	Audience  string
	Leeway    time.Duration
	// Now overrides the clock used for issued-at and expiry.
	Now func() time.Time
}

// Claims is the token payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Manager issues and verifies bearer tokens carrying an account email. It is
// immutable after NewManager and safe for concurrent use.
type Manager struct {
	cfg       Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	parser    *jwt.Parser
}

// NewManager validates cfg and resolves its keys once.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt: TTL must be positive")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, fmt.Errorf("jwt: leeway must be between 0 and %s", maxLeeway)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{cfg: cfg}
	switch SigningMethod(strings.ToLower(string(cfg.SigningMethod))) {
	case MethodHS256, "":
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("jwt: hs256 requires a secret")
		}
		secret := append([]byte(nil), cfg.PrivateKey...)
		m.method, m.signKey, m.verifyKey = jwt.SigningMethodHS256, secret, secret
	case MethodEd25519:
		if err := m.resolveEd25519(cfg.PrivateKey, cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	m.parser = jwt.NewParser(opts...)
	return m, nil
}

func (m *Manager) resolveEd25519(private, public []byte) error {
	m.method = jwt.SigningMethodEdDSA
	if len(private) > 0 {
		priv, err := parseEdPrivateKey(private)
		if err != nil {
			return err
		}
		m.signKey = priv
		m.verifyKey = priv.Public()
	}
	if len(public) > 0 {
		pub, err := parseEdPublicKey(public)
		if err != nil {
			return err
		}
		m.verifyKey = pub
	}
	if m.verifyKey == nil {
		return errors.New("jwt: ed25519 requires a private or public key")
	}
	return nil
}

// Issue signs a token for email valid for the configured TTL.
func (m *Manager) Issue(email string) (string, error) {
	if email == "" {
		return "", ErrMissingEmail
	}
	if m.signKey == nil {
		return "", errors.New("jwt: manager has no signing key")
	}

	now := m.cfg.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
		},
	}
	if m.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.cfg.Audience}
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
}

// Verify checks signature, algorithm and registered claims, and returns the
// payload. All failures wrap ErrInvalidToken.
func (m *Manager) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.verifyKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrMissingEmail)
	}
	return &claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("jwt: invalid ed25519 private key: %w", err)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: private key is not ed25519")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("jwt: invalid ed25519 public key: %w", err)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: public key is not ed25519")
	}
	return edKey, nil
}
