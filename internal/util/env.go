package util

import (
	"os"
	"strconv"

	"github.com/papergraph/papergraph/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv merges a .env file from the working directory into the process
// environment. Credentials and endpoints come from here; tunables live in
// the YAML config.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, using the process environment")
	}
}

// GetEnv returns the value of key, or "" when unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvString returns the value of key, or defaultValue when unset.
// An empty value set explicitly is returned as-is.
func GetEnvString(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// GetEnvInt parses key as an integer, falling back to defaultValue when
// the variable is unset or malformed.
func GetEnvInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvBool parses key as "true" or "false", falling back to
// defaultValue for anything else.
func GetEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	}
	return defaultValue
}
