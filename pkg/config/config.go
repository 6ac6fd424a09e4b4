package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Authentication modes for the HTTP surface.
const (
	AuthModeNone   = "none"
	AuthModeJWT    = "jwt"
	AuthModeAPIKey = "apikey"
	AuthModeAny    = "any"
)

const insecureJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	LogLevel       string
	MigrationsPath string
	AutoMigrate    bool

	AuthMode          string
	JWTSecret         string
	JWTIssuer         string
	JWTExpiryDuration time.Duration
	APIKeyHashes      string
	RateLimit         string
	CORSAllowOrigins  []string

	GuardrailPolicyFile    string
	SmartCodeAutoNormalize bool
	DefaultPageLimit       int
	MaxPageLimit           int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("AUTH_MODE", AuthModeJWT)
	v.SetDefault("JWT_SECRET", insecureJWTSecret)
	v.SetDefault("JWT_ISSUER", "hera-engine")
	v.SetDefault("JWT_EXPIRY_DURATION", "1h")
	v.SetDefault("API_KEY_HASHES", "")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("GUARDRAIL_POLICY_FILE", "")
	v.SetDefault("SMART_CODE_AUTO_NORMALIZE", false)
	v.SetDefault("DEFAULT_PAGE_LIMIT", 50)
	v.SetDefault("MAX_PAGE_LIMIT", 500)

	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:            v.GetString("PGSQL_URL"),
		Port:                   v.GetString("PORT"),
		IsProduction:           v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          v.GetBool("ENABLE_DB_CHECK"),
		LogLevel:               strings.ToLower(v.GetString("LOG_LEVEL")),
		MigrationsPath:         v.GetString("MIGRATIONS_PATH"),
		AutoMigrate:            v.GetBool("AUTO_MIGRATE"),
		AuthMode:               strings.ToLower(strings.TrimSpace(v.GetString("AUTH_MODE"))),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTIssuer:              v.GetString("JWT_ISSUER"),
		APIKeyHashes:           v.GetString("API_KEY_HASHES"),
		RateLimit:              v.GetString("RATE_LIMIT"),
		GuardrailPolicyFile:    v.GetString("GUARDRAIL_POLICY_FILE"),
		SmartCodeAutoNormalize: v.GetBool("SMART_CODE_AUTO_NORMALIZE"),
		DefaultPageLimit:       v.GetInt("DEFAULT_PAGE_LIMIT"),
		MaxPageLimit:           v.GetInt("MAX_PAGE_LIMIT"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	jwtExpiryStr := v.GetString("JWT_EXPIRY_DURATION")
	expiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		expiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, expiry)
	}
	cfg.JWTExpiryDuration = expiry

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, origin)
		}
	}

	switch cfg.AuthMode {
	case AuthModeNone, AuthModeJWT, AuthModeAPIKey, AuthModeAny:
	default:
		return nil, fmt.Errorf("AUTH_MODE must be one of none, jwt, apikey, any; got %q", cfg.AuthMode)
	}
	if cfg.usesJWT() && cfg.JWTSecret == insecureJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.AuthMode == AuthModeNone && cfg.IsProduction {
		log.Println("Warning: AUTH_MODE=none in production; callers are trusted to assert their actor id.")
	}
	if cfg.MaxPageLimit < cfg.DefaultPageLimit {
		return nil, fmt.Errorf("MAX_PAGE_LIMIT (%d) must not be below DEFAULT_PAGE_LIMIT (%d)", cfg.MaxPageLimit, cfg.DefaultPageLimit)
	}

	return cfg, nil
}

func (c *Config) usesJWT() bool {
	return c.AuthMode == AuthModeJWT || c.AuthMode == AuthModeAny
}

// UsesAPIKeys reports whether the API key middleware should be mounted.
func (c *Config) UsesAPIKeys() bool {
	return c.AuthMode == AuthModeAPIKey || c.AuthMode == AuthModeAny
}

// UsesJWT reports whether the JWT middleware should be mounted.
func (c *Config) UsesJWT() bool { return c.usesJWT() }
