package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	// AppBaseURL is the public URL links in outbound email point at
	AppBaseURL string

	// SigningKey signs every bearer token; the three lifetimes cover
	// session, email-verification and reset-authorization tokens
	SigningKey      []byte
	SessionTokenTTL time.Duration
	VerifyTokenTTL  time.Duration
	ResetTokenTTL   time.Duration

	// HashCost is the bcrypt cost factor; hashes stored at another
	// cost are upgraded on login
	HashCost int

	MailTimeout  time.Duration
	SESRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from the environment with sensible
// defaults. A local .env file is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:     getEnv("DB_URL", ""),
		DatabasePath:    getEnv("DB_PATH", "./oasisauth.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
		SigningKey:      []byte(getEnv("TOKEN_SIGNING_KEY", "")),
		SessionTokenTTL: getEnvDuration("SESSION_TOKEN_TTL", 24*time.Hour),
		VerifyTokenTTL:  getEnvDuration("VERIFY_TOKEN_TTL", 30*time.Minute),
		ResetTokenTTL:   getEnvDuration("RESET_TOKEN_TTL", 15*time.Minute),
		HashCost:        getEnvInt("HASH_COST", 10),
		MailTimeout:     getEnvDuration("MAIL_TIMEOUT", 10*time.Second),
		SESRegion:       getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		SESFromName:     getEnv("SES_FROM_NAME", "OASIS Auth"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable (e.g. "15m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration for %s: %q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvInt reads an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
