package jwt

import (
	"testing"
	"time"
)

func FuzzParse(f *testing.F) {
	m, err := NewManager(Config{
		TTL:           5 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    hmacKey,
		Issuer:        "gocred",
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": hmacKey},
	})
	if err != nil {
		f.Fatal(err)
	}
	seed, _, err := m.Issue(Subject{AccountID: 9, Username: "seed", Role: "USER"}, epoch)
	if err != nil {
		f.Fatal(err)
	}

	for _, s := range []string{
		seed,
		"",
		"a.b.c",
		"eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.",
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiItMSJ9.AAAA",
	} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, token string) {
		got, err := m.Parse(token, epoch)
		if err == nil && got.AccountID <= 0 {
			t.Fatalf("accepted token with account id %d", got.AccountID)
		}
	})
}
