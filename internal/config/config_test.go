package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MINT_MODE", "")
	t.Setenv("ACCESS_TTL", "")
	cfg := Load()
	if cfg.MintMode != MintModeSimulate {
		t.Fatalf("expected simulate mint mode, got %q", cfg.MintMode)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTTL)
	}
	if cfg.StorageBucket != "proof-files" {
		t.Fatalf("unexpected bucket %q", cfg.StorageBucket)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MINT_MODE", "queue")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("OTP_MAX_ATTEMPTS", "nope")
	t.Setenv("ADMIN_EMAILS", " a@x.io , B@x.io ,")
	cfg := Load()
	if cfg.MintMode != MintModeQueue {
		t.Fatalf("expected queue mint mode, got %q", cfg.MintMode)
	}
	if cfg.AccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTTL)
	}
	if cfg.OTPMaxAttempts != 5 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.OTPMaxAttempts)
	}
	if len(cfg.AdminEmails) != 2 {
		t.Fatalf("expected 2 admin emails, got %v", cfg.AdminEmails)
	}
	if !cfg.IsAdminEmail("b@X.io") {
		t.Fatalf("admin email match should be case-insensitive")
	}
}

func TestUnknownMintModeFallsBack(t *testing.T) {
	t.Setenv("MINT_MODE", "yolo")
	if got := Load().MintMode; got != MintModeSimulate {
		t.Fatalf("expected fallback to simulate, got %q", got)
	}
}
