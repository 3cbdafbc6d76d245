package config

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		t.Setenv("WSHOP_SESSION_SECRET", "Abc123!xyz-Abc123!xyz-Abc123!xyz")
		t.Setenv("WSHOP_SERVER_PORT", "9090")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ServerPort != 9090 {
			t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
		}
		if cfg.ServerAddr() != "localhost:9090" {
			t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
		}
		if !cfg.IsDevelopment() {
			t.Error("default env should be development")
		}
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("WSHOP_SESSION_SECRET", "")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for missing session secret")
		}
	})

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("WSHOP_SESSION_SECRET", "too-short")
		_, err := Load()
		if err == nil {
			t.Fatal("expected error for short session secret")
		}
		if !strings.Contains(err.Error(), "at least") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("known weak secret", func(t *testing.T) {
		t.Setenv("WSHOP_SESSION_SECRET", "change-me-to-32-byte-secret-key!")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for known weak secret")
		}
	})
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"Abc123!xyz-Abc123!xyz-Abc123!xyz", true},
		{"abcdefgh12345678abcdefgh12345678", false},
		{"Abcdefgh12345678Abcdefgh12345678", true},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
