// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the application.
type Config struct {
	// Server settings
	Port    string // HTTP listen port
	GinMode string // gin mode (debug, release, test)

	// Session settings
	SessionSecret     string // signing key for the session cookie
	SessionCookieName string // name of the session cookie

	// Request routing
	BasePath string // base path prefix stripped before route matching, e.g. "/sig"

	// Persistence
	DatabasePath string // filesystem path of the SQLite database

	// CORS
	CORSAllowedOrigins string // comma-separated list of allowed origins

	// Password hashing
	BcryptCost int
}

// Load reads settings from the environment. A .env.local file is read first
// when present (current directory, then the parent).
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sig_session"),

		BasePath: normalizeBasePath(getEnv("APP_BASE_PATH", "")),

		DatabasePath: getEnv("DATABASE_PATH", "var/sig.db"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 0), // 0 selects the bcrypt default
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate checks that settings required in release mode are present.
func (c *Config) Validate() error {
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required in release mode")
		}
	}

	return nil
}

// normalizeBasePath reduces a base path to "/prefix" form; "" and "/" mean
// no prefix.
func normalizeBasePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// getEnv returns the environment value for key, or the default when unset.
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt reads an environment value as an integer.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
