package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeyEnvVars are checked in order for the advisor credential.
var APIKeyEnvVars = []string{"BOOTMASTER_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// into the environment. Variables already set are left alone and missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// APIKey returns the first non-empty credential from APIKeyEnvVars.
// It is meant to be passed as a function, so the environment is read at
// request time.
func APIKey() string {
	for _, name := range APIKeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
