// Package config provides user configuration management for BootMaster.
//
// Settings are layered with viper: built-in defaults, then the YAML file,
// then BOOTMASTER_* environment variables (BOOTMASTER_ADVISOR_MODEL,
// BOOTMASTER_SERVER_PORT, ...). The file is written back with yaml.v3.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/bootmaster/config.yaml or $HOME/.config/bootmaster/config.yaml
//   - macOS: $HOME/.config/bootmaster/config.yaml
//   - Windows: %LOCALAPPDATA%\bootmaster\config.yaml
//
// # Security
//
// The API key used by the advisor is NEVER stored in this file. It is read
// from API_KEY, GEMINI_API_KEY or BOOTMASTER_API_KEY, optionally loaded from
// a .env file with LoadDotEnv.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	settings, err := cfg.ProvisioningDefaults()
//
//	cfg.Server.Port = 9090
//	if err := cfg.Save(); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A Config is a plain value. File writes are protected by a mutex and are
// atomic (temporary file plus rename).
package config
