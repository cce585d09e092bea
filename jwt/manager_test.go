package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func newHS256(t *testing.T, secret string, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte(secret), Issuer: "wellness", Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func sign(t *testing.T, method gjwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := gjwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := newClock()
	m := newHS256(t, "test-secret", clock)

	token, err := m.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "a@x.com" || claims.Issuer != "wellness" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(clock.now.Add(time.Hour)) {
		t.Fatalf("expected exp %v, got %v", clock.now.Add(time.Hour), got)
	}
}

func TestVerifyHonoursExpiryAndLeeway(t *testing.T) {
	clock := newClock()
	m, err := NewManager(Config{TTL: time.Minute, PrivateKey: []byte("s"), Leeway: 30 * time.Second, Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	token, err := m.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.now = clock.now.Add(80 * time.Second)
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("token inside leeway rejected: %v", err)
	}

	clock.now = clock.now.Add(20 * time.Second)
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) || !errors.Is(err, gjwt.ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	clock := newClock()
	m := newHS256(t, "secret-one", clock)
	other := newHS256(t, "secret-two", clock)

	token, _ := other.Issue("a@x.com")
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}

	base := gjwt.RegisteredClaims{Issuer: "wellness", ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute))}

	noExp := sign(t, gjwt.SigningMethodHS256, []byte("secret-one"), Claims{Email: "a@x.com", RegisteredClaims: gjwt.RegisteredClaims{Issuer: "wellness"}})
	if _, err := m.Verify(noExp); err == nil {
		t.Fatal("expected token without exp to fail")
	}

	wrongIssuer := base
	wrongIssuer.Issuer = "elsewhere"
	if _, err := m.Verify(sign(t, gjwt.SigningMethodHS256, []byte("secret-one"), Claims{Email: "a@x.com", RegisteredClaims: wrongIssuer})); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	noEmail := sign(t, gjwt.SigningMethodHS256, []byte("secret-one"), Claims{RegisteredClaims: base})
	if _, err := m.Verify(noEmail); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}

	none := sign(t, gjwt.SigningMethodNone, gjwt.UnsafeAllowNoneSignatureType, Claims{Email: "a@x.com", RegisteredClaims: base})
	if _, err := m.Verify(none); err == nil {
		t.Fatal("expected alg=none to fail")
	}

	for _, garbage := range []string{"", "not.a.jwt", "Bearer x"} {
		if _, err := m.Verify(garbage); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q) = %v", garbage, err)
		}
	}
}

func TestEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	clock := newClock()

	signer, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodEd25519, PrivateKey: priv, Audience: "api", Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager signer: %v", err)
	}
	verifier, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodEd25519, PublicKey: pub, Audience: "api", Now: clock.Now})
	if err != nil {
		t.Fatalf("NewManager verifier: %v", err)
	}

	token, err := signer.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if claims, err := verifier.Verify(token); err != nil || claims.Email != "a@x.com" {
		t.Fatalf("Verify = %+v, %v", claims, err)
	}
	if _, err := verifier.Issue("a@x.com"); err == nil {
		t.Fatal("verify-only manager must not issue")
	}

	hs := sign(t, gjwt.SigningMethodHS256, []byte(pub), Claims{Email: "a@x.com", RegisteredClaims: gjwt.RegisteredClaims{
		Audience:  gjwt.ClaimStrings{"api"},
		ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
	}})
	if _, err := verifier.Verify(hs); err == nil {
		t.Fatal("expected algorithm confusion to fail")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{PrivateKey: []byte("s")}},
		{"negative leeway", Config{TTL: time.Minute, PrivateKey: []byte("s"), Leeway: -time.Second}},
		{"huge leeway", Config{TTL: time.Minute, PrivateKey: []byte("s"), Leeway: time.Hour}},
		{"hs256 without secret", Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 without keys", Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{"ed25519 bad key", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: []byte("short")}},
		{"unknown method", Config{TTL: time.Minute, SigningMethod: "rs256", PrivateKey: []byte("s")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	m := newHS256(t, "s", newClock())
	if _, err := m.Issue(""); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
}
