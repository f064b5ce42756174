package util

import (
	"os"
	"strconv"
	"time"

	"github.com/OFFIS-RIT/dossier/backend/pkg/logger"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	return value
}

// GetEnvInt parses key as a base 10 integer. Unset or malformed values
// return defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}

	return returnValue
}

// GetEnvFloat parses key as a float64. Unset or malformed values return
// defaultValue.
func GetEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn("Invalid number in environment, using default", "key", key, "value", value)
		return defaultValue
	}

	return returnValue
}

// GetEnvDuration parses key with time.ParseDuration ("90s", "2m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	returnValue, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("Invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}

	return returnValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}
