package config

import "testing"

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without JWT_SECRET")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/site.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() should be false without credentials")
	}
	if cfg.S3Enabled() {
		t.Error("S3Enabled() should be false without credentials")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")
	t.Setenv("PORT", "9999")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
	t.Setenv("S3_BUCKET", "assets")
	t.Setenv("S3_ACCESS_KEY", "ak")
	t.Setenv("S3_SECRET_KEY", "sk")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if !cfg.GoogleEnabled() {
		t.Error("GoogleEnabled() should be true")
	}
	if cfg.GoogleRedirectURL == "" {
		t.Error("GoogleRedirectURL should default from the port")
	}
	if !cfg.S3Enabled() {
		t.Error("S3Enabled() should be true")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-at-least-16-chars")
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}
