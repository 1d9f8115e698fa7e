package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("POSTGRES_USER", "exam")
	t.Setenv("POSTGRES_PASSWORD", "p@ss")
	t.Setenv("POSTGRES_SERVER", "db")
	t.Setenv("POSTGRES_DB", "exams")
	t.Setenv("SECRET_KEY", "secret")
	t.Setenv("AUTH_PROVIDER", "")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.AuthProvider != AuthProviderJWT {
		t.Errorf("AuthProvider = %q, want %q", cfg.AuthProvider, AuthProviderJWT)
	}
	if cfg.JWT.AccessTokenExpires != 30*time.Minute {
		t.Errorf("AccessTokenExpires = %v, want 30m", cfg.JWT.AccessTokenExpires)
	}
	if cfg.Postgres.Port != "5432" {
		t.Errorf("Postgres.Port = %q, want 5432", cfg.Postgres.Port)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if got, want := cfg.DSN(), "postgres://exam:p%40ss@db:5432/exams"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "jwt ok",
			cfg:  Config{DatabaseURL: "postgres://x", AuthProvider: AuthProviderJWT, JWT: JWTConfig{SecretKey: "s", Algorithm: "HS256"}},
		},
		{
			name:    "jwt without secret",
			cfg:     Config{DatabaseURL: "postgres://x", AuthProvider: AuthProviderJWT, JWT: JWTConfig{Algorithm: "HS256"}},
			wantErr: true,
		},
		{
			name:    "unsupported algorithm",
			cfg:     Config{DatabaseURL: "postgres://x", AuthProvider: AuthProviderJWT, JWT: JWTConfig{SecretKey: "s", Algorithm: "RS256"}},
			wantErr: true,
		},
		{
			name:    "casdoor without endpoint",
			cfg:     Config{DatabaseURL: "postgres://x", AuthProvider: AuthProviderCasdoor},
			wantErr: true,
		},
		{
			name:    "no database",
			cfg:     Config{AuthProvider: AuthProviderJWT, JWT: JWTConfig{SecretKey: "s", Algorithm: "HS256"}},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     Config{DatabaseURL: "postgres://x", AuthProvider: "ldap"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
