package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.HTTPAddr != ":9091" || cfg.DBDriver != "sqlite" || cfg.DBDSN != "cafe.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != 12*time.Hour || cfg.Currency != "DH" || cfg.TicketDir != "." || cfg.HashPasswords {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RequireSecret() == nil {
		t.Fatalf("expected missing secret error")
	}
	if len(cfg.Secret()) == 0 {
		t.Fatalf("dev secret expected")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DRIVER":      "mysql",
		"DB_DSN":         "u:p@tcp(localhost:3306)/cafe",
		"JWT_SECRET":     "s3cret",
		"TOKEN_TTL":      "30m",
		"HASH_PASSWORDS": "true",
		"PRINT_COMMAND":  "lp",
	}))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.DBDriver != "mysql" || cfg.TokenTTL != 30*time.Minute || !cfg.HashPasswords || cfg.PrintCommand != "lp" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.RequireSecret() != nil || string(cfg.Secret()) != "s3cret" {
		t.Fatalf("secret not applied")
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	for _, m := range []map[string]string{
		{"DB_DRIVER": "postgres"},
		{"TOKEN_TTL": "soon"},
		{"TOKEN_TTL": "-1h"},
		{"HASH_PASSWORDS": "maybe"},
	} {
		if _, err := FromEnv(env(m)); err == nil {
			t.Fatalf("expected error for %v", m)
		}
	}
}
