package goCred

import (
	"strings"
	"testing"
)

func TestSecurityReportDefaults(t *testing.T) {
	env := newTestEnv(t, testConfig())

	report := env.engine.SecurityReport()
	if !report.LockoutActive || report.LockoutThreshold != 5 {
		t.Fatalf("expected lockout active, got %+v", report)
	}
	if report.TokensEnabled || report.SigningAlgorithm != "" {
		t.Fatal("tokens reported while disabled")
	}
	if report.RequestThrottleActive {
		t.Fatal("throttle reported without redis")
	}
	if !containsWarning(report.Warnings, "not throttled") {
		t.Fatalf("expected throttle warning, got %v", report.Warnings)
	}
	if containsWarning(report.Warnings, "lockout") {
		t.Fatalf("unexpected lockout warning: %v", report.Warnings)
	}
}

func TestSecurityReportWarnsOnWeakSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Lockout.Threshold = 0
	env := newTestEnv(t, cfg)

	report := env.engine.SecurityReport()
	for _, want := range []string{"lockout is disabled", "argon2id memory", "not padded"} {
		if !containsWarning(report.Warnings, want) {
			t.Fatalf("missing warning %q in %v", want, report.Warnings)
		}
	}
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
