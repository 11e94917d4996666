package config

import (
	"fmt"
	"time"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/urls"
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// Config represents the entire user configuration file.
type Config struct {
	Version      int                `mapstructure:"version" yaml:"version"`
	Language     string             `mapstructure:"language" yaml:"language,omitempty"` // "fr", "en" or empty for $LANG
	Advisor      AdvisorConfig      `mapstructure:"advisor" yaml:"advisor"`
	Provisioning ProvisioningConfig `mapstructure:"provisioning" yaml:"provisioning"`
	Catalog      CatalogConfig      `mapstructure:"catalog" yaml:"catalog"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`

	// path is where the config was loaded from and where Save writes
	path string
}

// AdvisorConfig configures the assistant session and its endpoint.
type AdvisorConfig struct {
	Model           string        `mapstructure:"model" yaml:"model"`
	Temperature     float64       `mapstructure:"temperature" yaml:"temperature"`
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxContextTurns int           `mapstructure:"max_context_turns" yaml:"max_context_turns"`
}

// ProvisioningConfig holds the simulator pacing and default run settings.
type ProvisioningConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	Device       string        `mapstructure:"device" yaml:"device"`
	Partition    string        `mapstructure:"partition" yaml:"partition"`
	Firmware     string        `mapstructure:"firmware" yaml:"firmware"`
	FileSystem   string        `mapstructure:"file_system" yaml:"file_system"`
}

// CatalogConfig holds the simulated drive list.
type CatalogConfig struct {
	RescanDelay time.Duration `mapstructure:"rescan_delay" yaml:"rescan_delay"`
	MaxDevices  int           `mapstructure:"max_devices" yaml:"max_devices"`
	Devices     []DeviceEntry `mapstructure:"devices" yaml:"devices,omitempty"` // empty means the built-in pair
}

// DeviceEntry is one seeded drive.
type DeviceEntry struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
	Kind string `mapstructure:"kind" yaml:"kind"` // Removable or SSD
}

// ServerConfig configures the browser console.
type ServerConfig struct {
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port"`
	Advertise bool   `mapstructure:"advertise" yaml:"advertise"` // announce over mDNS
}

// Default returns a Config with default values.
func Default() *Config {
	settings := provisioning.DefaultSettings()
	return &Config{
		Version: CurrentVersion,
		Advisor: AdvisorConfig{
			Model:           advisor.DefaultModel,
			Temperature:     advisor.DefaultTemperature,
			Endpoint:        urls.GeminiEndpoint,
			Timeout:         60 * time.Second,
			MaxContextTurns: advisor.DefaultMaxContextTurns,
		},
		Provisioning: ProvisioningConfig{
			TickInterval: provisioning.DefaultTickInterval,
			Device:       settings.DeviceID,
			Partition:    string(settings.Partition),
			Firmware:     string(settings.Firmware),
			FileSystem:   string(settings.FileSystem),
		},
		Catalog: CatalogConfig{
			RescanDelay: catalog.DefaultRescanDelay,
			MaxDevices:  catalog.DefaultMaxDevices,
		},
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8089,
			Advertise: false,
		},
	}
}

// Path returns the file this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	switch c.Language {
	case "", string(locale.French), string(locale.English):
	default:
		return fmt.Errorf("language must be fr or en, got %q", c.Language)
	}
	if c.Advisor.Model == "" {
		return fmt.Errorf("advisor.model cannot be empty")
	}
	if c.Advisor.Temperature < 0 || c.Advisor.Temperature > 2 {
		return fmt.Errorf("advisor.temperature must be between 0 and 2")
	}
	if c.Advisor.Endpoint == "" {
		return fmt.Errorf("advisor.endpoint cannot be empty")
	}
	if c.Advisor.Timeout < 0 {
		return fmt.Errorf("advisor.timeout must be non-negative")
	}
	if c.Advisor.MaxContextTurns < 0 {
		return fmt.Errorf("advisor.max_context_turns must be non-negative")
	}
	if c.Provisioning.TickInterval <= 0 {
		return fmt.Errorf("provisioning.tick_interval must be positive")
	}
	if _, err := c.ProvisioningDefaults(); err != nil {
		return err
	}
	if c.Catalog.RescanDelay <= 0 {
		return fmt.Errorf("catalog.rescan_delay must be positive")
	}
	if c.Catalog.MaxDevices <= 0 {
		return fmt.Errorf("catalog.max_devices must be positive")
	}
	devices, err := c.CatalogDevices()
	if err != nil {
		return err
	}
	if len(devices) > c.Catalog.MaxDevices {
		return fmt.Errorf("catalog.devices has %d entries, more than max_devices (%d)", len(devices), c.Catalog.MaxDevices)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	return nil
}

// Lang resolves the UI language from the config, falling back to the
// process environment.
func (c *Config) Lang(env ...string) locale.Lang {
	return locale.Resolve(append([]string{c.Language}, env...)...)
}

// CatalogDevices converts the seeded drive list. An empty list selects the
// built-in pair.
func (c *Config) CatalogDevices() ([]catalog.Device, error) {
	if len(c.Catalog.Devices) == 0 {
		return catalog.DefaultDevices(), nil
	}
	seen := make(map[string]bool, len(c.Catalog.Devices))
	devices := make([]catalog.Device, 0, len(c.Catalog.Devices))
	for i, entry := range c.Catalog.Devices {
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog.devices[%d]: id cannot be empty", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("catalog.devices[%d]: duplicate id %q", i, entry.ID)
		}
		seen[entry.ID] = true
		kind, err := catalog.ParseMediaKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("catalog.devices[%d]: %w", i, err)
		}
		name := entry.Name
		if name == "" {
			name = entry.ID
		}
		devices = append(devices, catalog.Device{ID: entry.ID, DisplayName: name, MediaKind: kind})
	}
	return devices, nil
}

// ProvisioningDefaults returns the initial run settings.
func (c *Config) ProvisioningDefaults() (provisioning.Settings, error) {
	partition, err := provisioning.ParsePartitionScheme(c.Provisioning.Partition)
	if err != nil {
		return provisioning.Settings{}, fmt.Errorf("provisioning.partition: %w", err)
	}
	firmware, err := provisioning.ParseTargetFirmware(c.Provisioning.Firmware)
	if err != nil {
		return provisioning.Settings{}, fmt.Errorf("provisioning.firmware: %w", err)
	}
	fs, err := provisioning.ParseFileSystem(c.Provisioning.FileSystem)
	if err != nil {
		return provisioning.Settings{}, fmt.Errorf("provisioning.file_system: %w", err)
	}
	return provisioning.Settings{
		DeviceID:   c.Provisioning.Device,
		Partition:  partition,
		Firmware:   firmware,
		FileSystem: fs,
	}, nil
}

// MarshalYAML writes durations in their readable form ("60s").
func (a AdvisorConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Model           string  `yaml:"model"`
		Temperature     float64 `yaml:"temperature"`
		Endpoint        string  `yaml:"endpoint"`
		Timeout         string  `yaml:"timeout"`
		MaxContextTurns int     `yaml:"max_context_turns"`
	}{a.Model, a.Temperature, a.Endpoint, a.Timeout.String(), a.MaxContextTurns}, nil
}

// MarshalYAML writes durations in their readable form ("150ms").
func (p ProvisioningConfig) MarshalYAML() (interface{}, error) {
	return struct {
		TickInterval string `yaml:"tick_interval"`
		Device       string `yaml:"device"`
		Partition    string `yaml:"partition"`
		Firmware     string `yaml:"firmware"`
		FileSystem   string `yaml:"file_system"`
	}{p.TickInterval.String(), p.Device, p.Partition, p.Firmware, p.FileSystem}, nil
}

// MarshalYAML writes durations in their readable form ("1.5s").
func (c CatalogConfig) MarshalYAML() (interface{}, error) {
	return struct {
		RescanDelay string        `yaml:"rescan_delay"`
		MaxDevices  int           `yaml:"max_devices"`
		Devices     []DeviceEntry `yaml:"devices,omitempty"`
	}{c.RescanDelay.String(), c.MaxDevices, c.Devices}, nil
}
