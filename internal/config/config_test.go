package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET":         "session-secret-0123456789abcdef0123",
		"RESET_TOKEN_SECRET": "reset-secret-0123456789abcdef012345",
	}
}

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(baseEnv()))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.ResetTokenTTL != 15*time.Minute {
		t.Errorf("ResetTokenTTL = %v", cfg.ResetTokenTTL)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate should default to true")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d", cfg.BcryptCost)
	}
	if cfg.SMTPHost != "smtp.gmail.com" || cfg.SMTPPort != 587 {
		t.Errorf("SMTP = %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.AuthRateLimit != 20 || cfg.GlobalRateLimit != 100 {
		t.Errorf("rate limits = %d/%d", cfg.AuthRateLimit, cfg.GlobalRateLimit)
	}
	if cfg.Production() {
		t.Error("development should not be production")
	}
}

func TestLoadWith_MissingSecrets(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoadWith_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"redis without url", map[string]string{"STORE_DRIVER": "redis"}, "REDIS_URL"},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}, "STORE_DRIVER"},
		{"unknown hasher", map[string]string{"PASSWORD_HASHER": "md5"}, "PASSWORD_HASHER"},
		{"negative attempts", map[string]string{"RESET_ATTEMPT_LIMIT": "-1"}, "RESET_ATTEMPT_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range tt.env {
				env[k] = v
			}
			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestSenderFallbacks(t *testing.T) {
	env := baseEnv()
	env["SENDGRID_KEY"] = "SG.legacy"
	env["EMAIL_ID"] = "noreply@monopay.test"
	env["APP_ENV"] = "Production"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.test,https://b.test"

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}
	if got := cfg.SendGridAPIKeyValue(); got != "SG.legacy" {
		t.Errorf("SendGridAPIKeyValue() = %q", got)
	}
	if got := cfg.SendGridSender(); got != "noreply@monopay.test" {
		t.Errorf("SendGridSender() = %q", got)
	}
	if got := cfg.SMTPSender(); got != "noreply@monopay.test" {
		t.Errorf("SMTPSender() = %q", got)
	}
	if !cfg.Production() {
		t.Error("APP_ENV=Production should be production")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}

	env["SENDGRID_API_KEY"] = "SG.primary"
	cfg, _ = LoadWith(context.Background(), envconfig.MapLookuper(env))
	if got := cfg.SendGridAPIKeyValue(); got != "SG.primary" {
		t.Errorf("SendGridAPIKeyValue() = %q, want SENDGRID_API_KEY to win", got)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "JWT_SECRET=session-secret-0123456789abcdef0123\n" +
		"RESET_TOKEN_SECRET=reset-secret-0123456789abcdef012345\n" +
		"ADDR=:9191\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, k := range []string{"JWT_SECRET", "RESET_TOKEN_SECRET", "ADDR"} {
		if _, ok := os.LookupEnv(k); ok {
			t.Skipf("%s set in the environment", k)
		}
	}
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("RESET_TOKEN_SECRET")
		os.Unsetenv("ADDR")
	})

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9191" {
		t.Errorf("Addr = %q, want value from .env", cfg.Addr)
	}
}
