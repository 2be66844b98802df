package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix = "$argon2id$"

	// DefaultMaxPasswordBytes bounds plaintext input when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

// Floors applied both to configuration and to stored digests.
const (
	floorMemoryKiB   uint32 = 8 * 1024
	floorTime        uint32 = 1
	floorParallelism uint8  = 1
	floorSaltLength  uint32 = 16
	floorKeyLength   uint32 = 16
)

// Config holds argon2id cost parameters.
type Config struct {
	Memory           uint32 // KiB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// Argon2 hashes passwords with argon2id and encodes them as PHC strings:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg and returns a hasher bound to it.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < floorMemoryKiB:
		return nil, fmt.Errorf("argon2 memory must be >= %d KiB", floorMemoryKiB)
	case cfg.Time < floorTime:
		return nil, errors.New("argon2 time must be >= 1")
	case cfg.Parallelism < floorParallelism:
		return nil, errors.New("argon2 parallelism must be >= 1")
	case cfg.SaltLength < floorSaltLength:
		return nil, fmt.Errorf("argon2 salt length must be >= %d", floorSaltLength)
	case cfg.KeyLength < floorKeyLength:
		return nil, fmt.Errorf("argon2 key length must be >= %d", floorKeyLength)
	case cfg.MaxPasswordBytes < 0:
		return nil, errors.New("max password bytes must be >= 0")
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a salted argon2id digest for plaintext.
func (a *Argon2) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > a.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("argon2 salt: %w", err)
	}

	p := phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
	}
	p.key = p.derive(plaintext, a.config.KeyLength)
	return p.String(), nil
}

// Verify recomputes the digest with the parameters embedded in digest and
// compares in constant time.
func (a *Argon2) Verify(plaintext, digest string) (bool, error) {
	if len(plaintext) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}
	computed := p.derive(plaintext, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// NeedsUpgrade reports whether digest is weaker than the configured cost or
// uses a different key or salt size.
func (a *Argon2) NeedsUpgrade(digest string) (bool, error) {
	p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}
	weaker := p.memory < a.config.Memory ||
		p.time < a.config.Time ||
		p.parallelism < a.config.Parallelism
	resized := uint32(len(p.key)) != a.config.KeyLength ||
		uint32(len(p.salt)) < a.config.SaltLength
	return weaker || resized, nil
}

// Recognizes reports whether digest is an argon2id PHC string.
func (a *Argon2) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, argon2Prefix)
}

// phc is one decoded argon2id digest.
type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) derive(plaintext string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.parallelism, keyLen)
}

func (p phc) String() string {
	var b strings.Builder
	b.WriteString(argon2Prefix)
	b.WriteString("v=")
	b.WriteString(strconv.Itoa(argon2.Version))
	b.WriteString("$m=")
	b.WriteString(strconv.FormatUint(uint64(p.memory), 10))
	b.WriteString(",t=")
	b.WriteString(strconv.FormatUint(uint64(p.time), 10))
	b.WriteString(",p=")
	b.WriteString(strconv.FormatUint(uint64(p.parallelism), 10))
	b.WriteByte('$')
	b.WriteString(base64.RawStdEncoding.EncodeToString(p.salt))
	b.WriteByte('$')
	b.WriteString(base64.RawStdEncoding.EncodeToString(p.key))
	return b.String()
}

func malformed(what string) error {
	return fmt.Errorf("%w: %s", ErrMalformedDigest, what)
}

func decodePHC(digest string) (phc, error) {
	fields := strings.Split(digest, "$")
	if len(fields) != 6 || fields[0] != "" {
		return phc{}, ErrMalformedDigest
	}
	if fields[1] != "argon2id" {
		return phc{}, ErrUnsupportedDigest
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return phc{}, malformed("version")
	}

	var p phc
	if err := p.decodeParams(fields[3]); err != nil {
		return phc{}, err
	}

	var err error
	if p.salt, err = decodeB64(fields[4]); err != nil || uint32(len(p.salt)) < floorSaltLength {
		return phc{}, malformed("salt")
	}
	if p.key, err = decodeB64(fields[5]); err != nil || len(p.key) == 0 {
		return phc{}, malformed("key")
	}
	return p, nil
}

// decodeParams reads "m=…,t=…,p=…" in that order.
func (p *phc) decodeParams(s string) error {
	var m, t, par uint64
	if n, err := fmt.Sscanf(s, "m=%d,t=%d,p=%d", &m, &t, &par); err != nil || n != 3 {
		return malformed("parameters")
	}
	if fmt.Sprintf("m=%d,t=%d,p=%d", m, t, par) != s {
		return malformed("parameters")
	}
	switch {
	case m < uint64(floorMemoryKiB) || m > 1<<32-1:
		return malformed("memory")
	case t < uint64(floorTime) || t > 1<<32-1:
		return malformed("time")
	case par < uint64(floorParallelism) || par > 255:
		return malformed("parallelism")
	}
	p.memory, p.time, p.parallelism = uint32(m), uint32(t), uint8(par)
	return nil
}

// decodeB64 accepts both unpadded (PHC) and padded standard base64.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
