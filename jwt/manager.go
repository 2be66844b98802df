package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWS algorithm used for identity tokens.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	// ErrInvalidToken wraps every Parse failure.
	ErrInvalidToken = errors.New("invalid identity token")
	// ErrNoSigningKey is returned by Issue on a verify-only manager.
	ErrNoSigningKey = errors.New("no signing key configured")
)

// Config controls identity token issuance and verification.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	// PrivateKey is the HMAC secret for hs256, or a raw or PEM ed25519
	// private key. An ed25519 manager without one only verifies.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	// KeyID is written to the kid header of issued tokens.
	KeyID string
	// VerifyKeys maps kid to verification key during key rotation. When set,
	// tokens must carry a known kid.
	VerifyKeys map[string][]byte
}

// Subject is the principal carried by an identity token.
type Subject struct {
	AccountID              int64
	Username               string
	Role                   string
	PasswordChangeRequired bool
}

// IdentityClaims is the token payload. The registered subject holds the
// decimal account id.
type IdentityClaims struct {
	Username               string `json:"usr"`
	Role                   string `json:"role,omitempty"`
	PasswordChangeRequired bool   `json:"pcr,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies identity tokens. Keys are decoded once by
// NewManager.
type Manager struct {
	ttl      time.Duration
	method   jwt.SigningMethod
	issuer   string
	audience string
	leeway   time.Duration
	keyID    string

	signKey   any
	verifyKey any
	byKID     map[string]any
}

// NewManager validates cfg and decodes its keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("token TTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("token leeway must be within [0, 2m]")
	}

	m := &Manager{
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.Leeway,
		keyID:    strings.TrimSpace(cfg.KeyID),
	}

	var decode func([]byte) (any, error)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a key of at least 32 bytes")
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
		m.verifyKey = cfg.PrivateKey
		decode = func(k []byte) (any, error) { return k, nil }
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.signKey = priv
			m.verifyKey = priv.Public()
		}
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verifyKey = pub
		}
		if m.verifyKey == nil && len(cfg.VerifyKeys) == 0 {
			return nil, errors.New("ed25519 requires a key")
		}
		decode = func(k []byte) (any, error) { return parseEdPublicKey(k) }
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	if len(cfg.VerifyKeys) > 0 {
		m.byKID = make(map[string]any, len(cfg.VerifyKeys))
		for kid, raw := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("verify keys contain an empty kid")
			}
			key, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("verify key %q: %w", kid, err)
			}
			m.byKID[kid] = key
		}
		if m.keyID != "" {
			if _, ok := m.byKID[m.keyID]; !ok {
				return nil, errors.New("KeyID is not present in VerifyKeys")
			}
		}
	}
	return m, nil
}

// Issue signs a token for s valid from now for the configured TTL.
func (m *Manager) Issue(s Subject, now time.Time) (string, time.Time, error) {
	if m.signKey == nil {
		return "", time.Time{}, ErrNoSigningKey
	}
	expires := now.Add(m.ttl)
	claims := IdentityClaims{
		Username:               s.Username,
		Role:                   s.Role,
		PasswordChangeRequired: s.PasswordChangeRequired,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.AccountID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.keyID != "" {
		token.Header["kid"] = m.keyID
	}
	signed, err := token.SignedString(m.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign identity token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies tokenStr as of now and returns its subject. Signature,
// algorithm, issuer, audience, iat, nbf and exp are all checked.
func (m *Manager) Parse(tokenStr string, now time.Time) (Subject, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.leeway),
	}
	if m.issuer != "" {
		options = append(options, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		options = append(options, jwt.WithAudience(m.audience))
	}

	var claims IdentityClaims
	if _, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &claims, m.keyFor); err != nil {
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Subject{}, fmt.Errorf("%w: subject is not an account id", ErrInvalidToken)
	}
	return Subject{
		AccountID:              id,
		Username:               claims.Username,
		Role:                   claims.Role,
		PasswordChangeRequired: claims.PasswordChangeRequired,
	}, nil
}

func (m *Manager) keyFor(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if m.byKID != nil {
		key, ok := m.byKID[kid]
		if !ok {
			return nil, fmt.Errorf("unknown kid %q", kid)
		}
		return key, nil
	}
	if m.keyID != "" && kid != m.keyID {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return m.verifyKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return priv, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return pub, nil
}
