package internal

import (
	"testing"
	"time"
)

func TestNewOTPWidthAndDigits(t *testing.T) {
	for _, digits := range []int{6, 8, 10} {
		for i := 0; i < 200; i++ {
			code, err := NewOTP(digits)
			if err != nil {
				t.Fatalf("NewOTP(%d) error: %v", digits, err)
			}
			if len(code) != digits || !IsNumeric(code) {
				t.Fatalf("NewOTP(%d) produced %q", digits, code)
			}
		}
	}
}

func TestNewOTPRejectsWidth(t *testing.T) {
	for _, digits := range []int{0, 5, 11} {
		if _, err := NewOTP(digits); err != ErrInvalidOTPDigits {
			t.Fatalf("NewOTP(%d): expected ErrInvalidOTPDigits, got %v", digits, err)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	cases := map[string]bool{
		"":       false,
		"000000": true,
		"12a456": false,
		" 12345": false,
		"987654": true,
	}
	for in, want := range cases {
		if got := IsNumeric(in); got != want {
			t.Fatalf("IsNumeric(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDigestTokenStable(t *testing.T) {
	a := DigestToken("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	b := DigestToken("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	if a != b || len(a) != 64 {
		t.Fatalf("unexpected digest %q / %q", a, b)
	}
	if a == DigestToken("other") {
		t.Fatal("distinct tokens must not share a digest")
	}
}

func TestRandomDurationRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		d, err := RandomDuration(20*time.Millisecond, 40*time.Millisecond)
		if err != nil {
			t.Fatalf("RandomDuration error: %v", err)
		}
		if d < 20*time.Millisecond || d >= 40*time.Millisecond {
			t.Fatalf("duration %v out of range", d)
		}
	}
	if d, _ := RandomDuration(time.Second, time.Second); d != time.Second {
		t.Fatalf("degenerate range: got %v", d)
	}
}
