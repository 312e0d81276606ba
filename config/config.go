package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"nailchat/storage"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type AssistantConfig struct {
	ServerURL      string `toml:"server_url"`
	UserID         string `toml:"user_id"`
	RequestTimeout string `toml:"request_timeout"`
}

type StorageConfig struct {
	Backend string `toml:"backend"`
}

type UserConfig struct {
	Assistant AssistantConfig `toml:"assistant"`
	Storage   StorageConfig   `toml:"storage"`
	LogLevel  string          `toml:"log_level"`
}

// Overrides carries command-line flags. They take precedence over the
// environment, which takes precedence over the config files.
type Overrides struct {
	ServerURL string
	DataDir   string
	Storage   string
	Debug     bool
}

type Config struct {
	DataDirectory  string
	ServerURL      string
	UserID         string
	RequestTimeout time.Duration
	StorageBackend storage.Backend
	LogLevel       string
	Debug          bool
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// Load resolves configuration from settings.toml, the user config.toml in
// the data directory, NAILCHAT_* environment variables and flags.
func Load(flags Overrides) (*Config, error) {
	LoadDotEnv()

	env, err := parseEnv()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDirectory:  GetDefaultDataDir(),
		ServerURL:      DefaultServerURL,
		RequestTimeout: DefaultRequestTimeout,
		StorageBackend: storage.BackendFile,
		LogLevel:       "info",
	}

	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}
	if systemCfg.DataDirectory != "" {
		cfg.DataDirectory = systemCfg.DataDirectory
	}
	cfg.DataDirectory = firstNonEmpty(flags.DataDir, env.DataDir, cfg.DataDirectory)

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if userCfg.Assistant.UserID == "" {
		userCfg.Assistant.UserID = uuid.NewString()
		if err := SaveUserConfig(userCfg, dataDir); err != nil {
			return nil, fmt.Errorf("failed to save generated user id: %w", err)
		}
	}
	cfg.UserID = userCfg.Assistant.UserID

	if userCfg.Assistant.RequestTimeout != "" {
		timeout, err := time.ParseDuration(userCfg.Assistant.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request_timeout %q: %w", userCfg.Assistant.RequestTimeout, err)
		}
		cfg.RequestTimeout = timeout
	}
	if env.RequestTimeout > 0 {
		cfg.RequestTimeout = env.RequestTimeout
	}

	cfg.ServerURL = firstNonEmpty(flags.ServerURL, env.ServerURL, userCfg.Assistant.ServerURL, cfg.ServerURL)
	cfg.LogLevel = firstNonEmpty(env.LogLevel, userCfg.LogLevel, cfg.LogLevel)
	cfg.Debug = flags.Debug || env.Debug

	backend := firstNonEmpty(flags.Storage, env.Storage, userCfg.Storage.Backend, string(cfg.StorageBackend))
	cfg.StorageBackend = storage.Backend(strings.ToLower(backend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be corrected silently
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (supported: file, sqlite, memory)", c.StorageBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server URL is not configured")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
