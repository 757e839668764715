// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the server needs to start. Optional integrations
// (Google login, object storage) are enabled only when their settings are
// present; see GoogleEnabled and S3Enabled.
type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	FrontendURL string
	BcryptCost  int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	// LoginRatePerMinute throttles the credential endpoints per client IP.
	LoginRatePerMinute int
	LoginRateBurst     int
}

// Load reads the environment. JWT_SECRET is the only hard requirement;
// everything else has a default or degrades a feature.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        8080,
		DBPath:      "data/site.db",
		FrontendURL: "http://localhost:3000",
		BcryptCost:  0, // 0 means the password service default

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        getenvDefault("S3_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),

		LoginRatePerMinute: 10,
		LoginRateBurst:     10,
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid BCRYPT_COST %q: %w", v, err)
		}
		cfg.BcryptCost = cost
	}
	if v := os.Getenv("LOGIN_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid LOGIN_RATE_PER_MINUTE %q: %w", v, err)
		}
		cfg.LoginRatePerMinute = n
		cfg.LoginRateBurst = n
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set (try: openssl rand -hex 32)")
	}

	if cfg.GoogleRedirectURL == "" && cfg.GoogleClientID != "" {
		cfg.GoogleRedirectURL = fmt.Sprintf("http://localhost:%d/api/auth/google/callback", cfg.Port)
	}

	return cfg, nil
}

// GoogleEnabled reports whether the Google login routes should be
// registered.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// S3Enabled reports whether profile picture uploads are available.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
