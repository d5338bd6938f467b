package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:  AppConfig{Env: "local", Port: 8080},
		DB:   DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "coffee"},
		Auth: AuthConfig{Domain: "shop.eu.auth0.com", Audience: "drinks"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.Driver != DriverPostgres {
		t.Fatalf("expected postgres default driver, got %q", c.DB.Driver)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.Issuer != "https://shop.eu.auth0.com/" {
		t.Fatalf("unexpected issuer %q", c.Auth.Issuer)
	}
	if c.Auth.JWKSURL != "https://shop.eu.auth0.com/.well-known/jwks.json" {
		t.Fatalf("unexpected jwks url %q", c.Auth.JWKSURL)
	}
	if c.Auth.JWKSRefresh != 10*time.Minute || c.Auth.Leeway != 30*time.Second {
		t.Fatalf("unexpected auth durations: %+v", c.Auth)
	}
	if len(c.CORS.AllowedOrigins) != 1 || c.CORS.AllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", c.CORS.AllowedOrigins)
	}
}

func TestValidate_SQLiteNeedsOnlyPath(t *testing.T) {
	c := Config{
		App:  AppConfig{Env: "dev", Port: 8080},
		DB:   DBConfig{Driver: DriverSQLite, Path: "./data/coffee.db"},
		Auth: AuthConfig{Issuer: "https://issuer.example/", Audience: "drinks"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DSN() != "./data/coffee.db" {
		t.Fatalf("unexpected dsn %q", c.DSN())
	}
}

func TestValidate_ResetRejectedInProduction(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.DB.Reset = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected DB_RESET to be rejected in production")
	}
}

func TestValidate_RedisPortRequiredWhenHostSet(t *testing.T) {
	c := validLocal()
	c.Redis.Host = "localhost"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected REDIS_PORT error")
	}
	c.Redis.Port = 6379
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestLoad_ReadsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "coffee.db")
	t.Setenv("DB_RESET", "true")
	t.Setenv("AUTH_ISSUER", "https://issuer.example/")
	t.Setenv("AUTH_AUDIENCE", "drinks")
	t.Setenv("AUTH_JWKS_REFRESH", "1m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:8100, http://localhost:4200")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 5000 || !c.DB.Reset || c.Auth.JWKSRefresh != time.Minute {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.CORS.AllowedOrigins) != 2 || c.CORS.AllowedOrigins[1] != "http://localhost:4200" {
		t.Fatalf("unexpected origins: %v", c.CORS.AllowedOrigins)
	}
}

func TestLoad_RejectsInvalidDurations(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "coffee.db")
	t.Setenv("AUTH_ISSUER", "https://issuer.example/")
	t.Setenv("AUTH_AUDIENCE", "drinks")
	t.Setenv("AUTH_LEEWAY", "ten seconds")
	t.Setenv("AUTH_JWKS_REFRESH", "5")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid durations")
	}
	for _, key := range []string{"AUTH_LEEWAY", "AUTH_JWKS_REFRESH"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error does not name %s: %v", key, err)
		}
	}
}
