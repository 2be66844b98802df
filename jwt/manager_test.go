package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	hmacKey = []byte("0123456789abcdef0123456789abcdef")
	epoch   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func edKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func hmacManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()
	cfg := Config{TTL: 10 * time.Minute, SigningMethod: MethodHS256, PrivateKey: hmacKey, Issuer: "gocred", Audience: "api"}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv := edKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub, Issuer: "gocred"})
	require.NoError(t, err)

	in := Subject{AccountID: 42, Username: "alice", Role: "ADMIN", PasswordChangeRequired: true}
	token, expires, err := m.Issue(in, epoch)
	require.NoError(t, err)
	require.Equal(t, epoch.Add(time.Minute), expires)

	out, err := m.Parse(token, epoch.Add(30*time.Second))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestVerifyOnlyManager(t *testing.T) {
	pub, priv := edKeys(t)
	signer, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv})
	require.NoError(t, err)
	verifier, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	require.NoError(t, err)

	token, _, err := signer.Issue(Subject{AccountID: 7, Username: "bob"}, epoch)
	require.NoError(t, err)
	got, err := verifier.Parse(token, epoch)
	require.NoError(t, err)
	require.Equal(t, int64(7), got.AccountID)

	_, _, err = verifier.Issue(Subject{AccountID: 7}, epoch)
	require.ErrorIs(t, err, ErrNoSigningKey)
}

func TestParseClock(t *testing.T) {
	m := hmacManager(t, func(c *Config) { c.Leeway = 5 * time.Second })
	token, _, err := m.Issue(Subject{AccountID: 1, Username: "u"}, epoch)
	require.NoError(t, err)

	cases := []struct {
		name string
		at   time.Time
		ok   bool
	}{
		{"at issue", epoch, true},
		{"inside leeway before issue", epoch.Add(-3 * time.Second), true},
		{"before issue", epoch.Add(-time.Minute), false},
		{"last second", epoch.Add(10 * time.Minute), true},
		{"expired", epoch.Add(11 * time.Minute), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Parse(token, tc.at)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseRejectsForeignTokens(t *testing.T) {
	m := hmacManager(t, nil)
	_, priv := edKeys(t)

	sign := func(method gjwt.SigningMethod, key any, mutate func(*IdentityClaims)) string {
		claims := IdentityClaims{Username: "x", RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "gocred",
			Audience:  gjwt.ClaimStrings{"api"},
			IssuedAt:  gjwt.NewNumericDate(epoch),
			ExpiresAt: gjwt.NewNumericDate(epoch.Add(time.Minute)),
		}}
		if mutate != nil {
			mutate(&claims)
		}
		s, err := gjwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	cases := map[string]string{
		"wrong algorithm": sign(gjwt.SigningMethodEdDSA, priv, nil),
		"wrong secret":    sign(gjwt.SigningMethodHS256, []byte("ffffffffffffffffffffffffffffffff"), nil),
		"wrong issuer":    sign(gjwt.SigningMethodHS256, hmacKey, func(c *IdentityClaims) { c.Issuer = "other" }),
		"wrong audience":  sign(gjwt.SigningMethodHS256, hmacKey, func(c *IdentityClaims) { c.Audience = gjwt.ClaimStrings{"web"} }),
		"no expiry":       sign(gjwt.SigningMethodHS256, hmacKey, func(c *IdentityClaims) { c.ExpiresAt = nil }),
		"bad subject":     sign(gjwt.SigningMethodHS256, hmacKey, func(c *IdentityClaims) { c.Subject = "alice" }),
		"zero subject":    sign(gjwt.SigningMethodHS256, hmacKey, func(c *IdentityClaims) { c.Subject = "0" }),
		"garbage":         "not.a.token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Parse(token, epoch)
			require.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestKeyRotation(t *testing.T) {
	oldKey := []byte("old-old-old-old-old-old-old-old-old!")
	previous := hmacManager(t, func(c *Config) { c.PrivateKey = oldKey; c.KeyID = "k1" })
	current := hmacManager(t, func(c *Config) {
		c.KeyID = "k2"
		c.VerifyKeys = map[string][]byte{"k1": oldKey, "k2": hmacKey}
	})

	legacy, _, err := previous.Issue(Subject{AccountID: 3, Username: "c"}, epoch)
	require.NoError(t, err)
	fresh, _, err := current.Issue(Subject{AccountID: 3, Username: "c"}, epoch)
	require.NoError(t, err)

	_, err = current.Parse(legacy, epoch)
	require.NoError(t, err)
	_, err = current.Parse(fresh, epoch)
	require.NoError(t, err)

	_, err = previous.Parse(fresh, epoch)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerValidation(t *testing.T) {
	_, priv := edKeys(t)
	cases := map[string]Config{
		"zero ttl":          {SigningMethod: MethodHS256, PrivateKey: hmacKey},
		"large leeway":      {TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: hmacKey, Leeway: time.Hour},
		"short secret":      {TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		"unknown method":    {TTL: time.Minute, SigningMethod: "rs256", PrivateKey: hmacKey},
		"ed25519 no key":    {TTL: time.Minute, SigningMethod: MethodEd25519},
		"ed25519 bad key":   {TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: []byte("nope")},
		"empty kid":         {TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: hmacKey, VerifyKeys: map[string][]byte{" ": hmacKey}},
		"kid not in keyset": {TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, KeyID: "a", VerifyKeys: map[string][]byte{"b": priv.Public().(ed25519.PublicKey)}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewManager(cfg)
			require.Error(t, err)
		})
	}
}
