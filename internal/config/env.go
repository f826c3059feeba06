package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"
)

// GetEnv returns the variable or defaultValue when unset or empty.
func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns the variable parsed as int, or defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetEnvDuration returns the variable parsed as a duration, or defaultValue.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvBool returns the variable parsed as bool, or defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
