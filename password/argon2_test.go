package password

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testArgon2Config() Config {
	return Config{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestArgon2(t *testing.T, mutate func(*Config)) *Argon2 {
	t.Helper()
	cfg := testArgon2Config()
	if mutate != nil {
		mutate(&cfg)
	}
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func TestArgon2RoundTrip(t *testing.T) {
	h := newTestArgon2(t, nil)

	digest, err := h.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", digest)
	}
	if strings.HasSuffix(digest, "=") {
		t.Fatalf("expected unpadded base64, got %s", digest)
	}

	if ok, err := h.Verify("Secret123!", digest); err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	if ok, err := h.Verify("Secret123?", digest); err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}

	other, _ := h.Hash("Secret123!")
	if other == digest {
		t.Fatal("expected a fresh salt per digest")
	}
}

func TestArgon2AcceptsPaddedDigest(t *testing.T) {
	h := newTestArgon2(t, nil)
	digest, err := h.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	p, err := decodePHC(digest)
	if err != nil {
		t.Fatalf("decodePHC: %v", err)
	}
	padded := strings.Join([]string{
		"", "argon2id", "v=19", "m=8192,t=1,p=1",
		base64.StdEncoding.EncodeToString(p.salt),
		base64.StdEncoding.EncodeToString(p.key),
	}, "$")

	if ok, err := h.Verify("Secret123!", padded); err != nil || !ok {
		t.Fatalf("Verify(padded) = %v, %v", ok, err)
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	base := newTestArgon2(t, nil)
	digest, err := base.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   bool
	}{
		{name: "same parameters", mutate: nil, want: false},
		{name: "more memory", mutate: func(c *Config) { c.Memory = 16384 }, want: true},
		{name: "more passes", mutate: func(c *Config) { c.Time = 2 }, want: true},
		{name: "more lanes", mutate: func(c *Config) { c.Parallelism = 2 }, want: true},
		{name: "longer key", mutate: func(c *Config) { c.KeyLength = 64 }, want: true},
		{name: "longer salt", mutate: func(c *Config) { c.SaltLength = 32 }, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestArgon2(t, tt.mutate).NeedsUpgrade(digest)
			if err != nil {
				t.Fatalf("NeedsUpgrade: %v", err)
			}
			if got != tt.want {
				t.Fatalf("NeedsUpgrade = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArgon2RejectsMalformedDigests(t *testing.T) {
	h := newTestArgon2(t, nil)
	digest, err := h.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	tests := []struct {
		name   string
		digest string
		want   error
	}{
		{name: "not phc", digest: "not-a-phc-hash", want: ErrMalformedDigest},
		{name: "other algorithm", digest: strings.Replace(digest, "argon2id", "argon2i", 1), want: ErrUnsupportedDigest},
		{name: "old version", digest: strings.Replace(digest, "$v=19$", "$v=16$", 1), want: ErrMalformedDigest},
		{name: "memory below floor", digest: strings.Replace(digest, "m=8192", "m=1024", 1), want: ErrMalformedDigest},
		{name: "reordered params", digest: strings.Replace(digest, "m=8192,t=1,p=1", "t=1,m=8192,p=1", 1), want: ErrMalformedDigest},
		{name: "short salt", digest: replaceField(digest, 4, base64.RawStdEncoding.EncodeToString([]byte("short"))), want: ErrMalformedDigest},
		{name: "empty key", digest: replaceField(digest, 5, ""), want: ErrMalformedDigest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Verify("Secret123!", tt.digest); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if h.Recognizes("$2a$10$abc") {
		t.Fatal("bcrypt digest recognized as argon2id")
	}
}

func replaceField(digest string, i int, value string) string {
	fields := strings.Split(digest, "$")
	fields[i] = value
	return strings.Join(fields, "$")
}

func TestArgon2PasswordLength(t *testing.T) {
	h := newTestArgon2(t, func(c *Config) { c.MaxPasswordBytes = 64 })

	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", 64)
	digest, err := h.Hash(exact)
	if err != nil {
		t.Fatalf("Hash(max length): %v", err)
	}
	if _, err := h.Verify(exact+"c", digest); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected Verify to reject long input, got %v", err)
	}

	defaults := newTestArgon2(t, nil)
	if _, err := defaults.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected default bound %d, got %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	tests := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 4096 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"max bytes":   func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testArgon2Config()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}
