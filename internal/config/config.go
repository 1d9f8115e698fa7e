package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AuthProviderCasdoor = "casdoor"
	AuthProviderJWT     = "jwt"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	Postgres    PostgresConfig

	RedisURL string

	KafkaBrokers []string
	EventsTopic  string

	AuthProvider string
	JWT          JWTConfig
	Casdoor      CasdoorConfig

	CORSAllowedOrigins []string
}

type PostgresConfig struct {
	User     string
	Password string
	Server   string
	Port     string
	DB       string
}

// JWTConfig holds the shared secret used for HS256 bearer tokens.
type JWTConfig struct {
	SecretKey          string
	Algorithm          string
	AccessTokenExpires time.Duration
}

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	expireMinutes, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Postgres: PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Server:   getEnv("POSTGRES_SERVER", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			DB:       os.Getenv("POSTGRES_DB"),
		},
		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		EventsTopic:  getEnv("EVENTS_TOPIC", "exam.attempts"),
		AuthProvider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
		JWT: JWTConfig{
			SecretKey:          os.Getenv("SECRET_KEY"),
			Algorithm:          getEnv("ALGORITHM", "HS256"),
			AccessTokenExpires: time.Duration(expireMinutes) * time.Minute,
		},
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && (c.Postgres.User == "" || c.Postgres.DB == "") {
		return fmt.Errorf("either DATABASE_URL or POSTGRES_USER and POSTGRES_DB must be set")
	}

	switch c.AuthProvider {
	case AuthProviderJWT:
		if c.JWT.SecretKey == "" {
			return fmt.Errorf("SECRET_KEY is required when AUTH_PROVIDER=%s", AuthProviderJWT)
		}
		if c.JWT.Algorithm != "HS256" {
			return fmt.Errorf("unsupported ALGORITHM %q", c.JWT.Algorithm)
		}
	case AuthProviderCasdoor:
		if c.Casdoor.Endpoint == "" || c.Casdoor.ClientID == "" {
			return fmt.Errorf("CASDOOR_ENDPOINT and CASDOOR_CLIENT_ID are required when AUTH_PROVIDER=%s", AuthProviderCasdoor)
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	return nil
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   c.Postgres.Server + ":" + c.Postgres.Port,
		Path:   c.Postgres.DB,
	}
	return u.String()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
