package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appName    = "bootmaster"
	configFile = "config.yaml"

	// EnvPrefix prefixes every environment override (BOOTMASTER_SERVER_PORT)
	EnvPrefix = "BOOTMASTER"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/bootmaster or $HOME/.config/bootmaster
//   - macOS: $HOME/.config/bootmaster (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\bootmaster
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			// Fallback to USERPROFILE\AppData\Local if LOCALAPPDATA not set
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// setDefaults registers every key so environment overrides apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("language", d.Language)
	v.SetDefault("advisor.model", d.Advisor.Model)
	v.SetDefault("advisor.temperature", d.Advisor.Temperature)
	v.SetDefault("advisor.endpoint", d.Advisor.Endpoint)
	v.SetDefault("advisor.timeout", d.Advisor.Timeout)
	v.SetDefault("advisor.max_context_turns", d.Advisor.MaxContextTurns)
	v.SetDefault("provisioning.tick_interval", d.Provisioning.TickInterval)
	v.SetDefault("provisioning.device", d.Provisioning.Device)
	v.SetDefault("provisioning.partition", d.Provisioning.Partition)
	v.SetDefault("provisioning.firmware", d.Provisioning.Firmware)
	v.SetDefault("provisioning.file_system", d.Provisioning.FileSystem)
	v.SetDefault("catalog.rescan_delay", d.Catalog.RescanDelay)
	v.SetDefault("catalog.max_devices", d.Catalog.MaxDevices)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.advertise", d.Server.Advertise)
}

// Load reads configuration from defaults, the config file and the
// environment, in that order of precedence. An empty path selects
// GetConfigPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)

	// Environment variables (BOOTMASTER_ADVISOR_MODEL, etc.)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.path = path

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Marshal renders the config as YAML with the file header.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# BootMaster Configuration File
# Settings for the simulated USB creator, the advisor and the web console.
#
# Security Note: the advisor API key is NEVER stored in this file.
# Set GEMINI_API_KEY (or API_KEY) in the environment or a .env file.
#
# Location: ` + c.path + `

`)
	return append(header, data...), nil
}

// Save writes the config to the path it was loaded from (or the default
// path). Performs an atomic write to prevent corruption on crash.
func (c *Config) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if c.path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		c.path = p
	}

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	// Write to temporary file first (atomic write)
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// SaveTo changes the target path and saves.
func (c *Config) SaveTo(path string) error {
	c.path = path
	return c.Save()
}
