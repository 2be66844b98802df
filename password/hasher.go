package password

import "errors"

var (
	ErrEmptyPassword     = errors.New("password must not be empty")
	ErrPasswordTooLong   = errors.New("password exceeds maximum length")
	ErrMalformedDigest   = errors.New("malformed password digest")
	ErrUnsupportedDigest = errors.New("unsupported password digest")
)

// Hasher is a one-way password hash with an embedded salt and cost.
//
// Verify must be constant-time with respect to plaintext content.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
	NeedsUpgrade(digest string) (bool, error)
}

// Recognizer is implemented by hashers that can tell whether a digest is
// theirs without verifying it.
type Recognizer interface {
	Recognizes(digest string) bool
}

// Chain hashes with Primary and verifies with whichever member recognizes
// the digest. Digests produced by a non-primary member always need upgrade.
type Chain struct {
	Primary  Hasher
	Fallback []Hasher
}

// NewChain returns a Chain that migrates digests from fallback towards primary.
func NewChain(primary Hasher, fallback ...Hasher) *Chain {
	return &Chain{Primary: primary, Fallback: fallback}
}

func (c *Chain) Hash(plaintext string) (string, error) {
	return c.Primary.Hash(plaintext)
}

func (c *Chain) Verify(plaintext, digest string) (bool, error) {
	h, err := c.pick(digest)
	if err != nil {
		return false, err
	}
	return h.Verify(plaintext, digest)
}

func (c *Chain) NeedsUpgrade(digest string) (bool, error) {
	h, err := c.pick(digest)
	if err != nil {
		return false, err
	}
	if h != c.Primary {
		return true, nil
	}
	return h.NeedsUpgrade(digest)
}

func (c *Chain) pick(digest string) (Hasher, error) {
	if recognizes(c.Primary, digest) {
		return c.Primary, nil
	}
	for _, h := range c.Fallback {
		if recognizes(h, digest) {
			return h, nil
		}
	}
	return nil, ErrUnsupportedDigest
}

func recognizes(h Hasher, digest string) bool {
	r, ok := h.(Recognizer)
	return ok && r.Recognizes(digest)
}
