package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type envOverrides struct {
	ServerURL      string        `env:"NAILCHAT_SERVER_URL"`
	DataDir        string        `env:"NAILCHAT_DATA_DIR"`
	Storage        string        `env:"NAILCHAT_STORAGE"`
	LogLevel       string        `env:"NAILCHAT_LOG_LEVEL"`
	RequestTimeout time.Duration `env:"NAILCHAT_REQUEST_TIMEOUT"`
	Debug          bool          `env:"NAILCHAT_DEBUG"`
}

func parseEnv() (*envOverrides, error) {
	overrides := &envOverrides{}
	if err := env.Parse(overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return overrides, nil
}

// LoadDotEnv loads a .env file from the working directory if present.
// Variables already set in the environment win.
func LoadDotEnv() {
	if !FileExists(".env") {
		return
	}
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}
}
