package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("%q: want %v got %v", in, want, got)
		}
	}
}

func TestNewWithFile(t *testing.T) {
	logger, err := New(Config{Level: "debug", FilePattern: t.TempDir() + "/gocred.%Y%m%d.log"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GOCRED_LOG_DEV", "1")
	t.Setenv("GOCRED_LOG_LEVEL", "")
	cfg := ConfigFromEnv()
	if !cfg.Dev || cfg.Level != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
