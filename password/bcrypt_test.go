package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	digest, err := hasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !hasher.Recognizes(digest) {
		t.Fatalf("expected bcrypt digest to be recognized: %s", digest)
	}

	ok, err := hasher.Verify("Secret123!", digest)
	if err != nil || !ok {
		t.Fatalf("expected verify to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("secret123!", digest)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password to fail")
	}
}

func TestBcryptDefaultCost(t *testing.T) {
	hasher, err := NewBcrypt(0)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if hasher.cost != DefaultBcryptCost {
		t.Fatalf("expected cost %d, got %d", DefaultBcryptCost, hasher.cost)
	}
}

func TestBcryptRejectsInvalidCost(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out-of-range cost to fail")
	}
}

func TestBcryptNeedsUpgrade(t *testing.T) {
	weak, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	strong, err := NewBcrypt(bcrypt.MinCost + 1)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	digest, err := weak.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	needs, err := strong.NeedsUpgrade(digest)
	if err != nil || !needs {
		t.Fatalf("expected upgrade for lower cost, needs=%v err=%v", needs, err)
	}
	needs, err = weak.NeedsUpgrade(digest)
	if err != nil || needs {
		t.Fatalf("expected no upgrade at same cost, needs=%v err=%v", needs, err)
	}
}

func TestBcryptRejectsOverlongPassword(t *testing.T) {
	hasher, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if _, err := hasher.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestChainVerifiesFallbackAndFlagsUpgrade(t *testing.T) {
	primary, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	legacy, err := NewBcrypt(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	chain := NewChain(primary, legacy)

	legacyDigest, err := legacy.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := chain.Verify("Secret123!", legacyDigest)
	if err != nil || !ok {
		t.Fatalf("expected chain to verify legacy digest, ok=%v err=%v", ok, err)
	}
	needs, err := chain.NeedsUpgrade(legacyDigest)
	if err != nil || !needs {
		t.Fatalf("expected legacy digest to need upgrade, needs=%v err=%v", needs, err)
	}

	fresh, err := chain.Hash("Secret123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(fresh, "$argon2id$") {
		t.Fatalf("expected primary digest, got %s", fresh)
	}
	needs, err = chain.NeedsUpgrade(fresh)
	if err != nil || needs {
		t.Fatalf("expected primary digest to be current, needs=%v err=%v", needs, err)
	}
}

func TestChainRejectsUnknownDigest(t *testing.T) {
	primary, err := NewArgon2(testArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	chain := NewChain(primary)

	if _, err := chain.Verify("Secret123!", "$unknown$abc"); !errors.Is(err, ErrUnsupportedDigest) {
		t.Fatalf("expected ErrUnsupportedDigest, got %v", err)
	}
}
