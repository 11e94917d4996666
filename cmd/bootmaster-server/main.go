// Bootmaster-server serves the BootMaster web console.
//
// Every browser tab gets its own isolated workspace (drive catalog,
// provisioning simulator and advisor session) behind a JSON API, with a
// WebSocket stream of state changes. The console can announce itself over
// mDNS so 'bootmaster consoles' and the export screen can find it.
//
// Usage:
//
//	bootmaster-server [flags]
//
// See 'bootmaster-server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/server"
	"github.com/muurk/bootmaster/internal/version"
	"github.com/muurk/bootmaster/internal/workspace"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Server flags
var (
	configPath    string
	host          string
	port          int
	logLevel      string
	advertise     bool
	instance      string
	langFlag      string
	maxWorkspaces int
)

var rootCmd = &cobra.Command{
	Use:   "bootmaster-server",
	Short: "BootMaster web console",
	Long: `Serve the BootMaster web console over HTTP.

Each browser session gets an isolated workspace. The advisor API key is read
from GEMINI_API_KEY (or API_KEY), from the environment or a .env file in the
working directory, and never leaves the server.

Host, port and advertisement default to the server section of the config
file; flags given on the command line win.

Note: for the terminal interface, use the separate 'bootmaster' utility.`,
	Example: `  # Local console on the configured port
  bootmaster-server

  # Reachable from the LAN and announced over mDNS
  bootmaster-server --host 0.0.0.0 --advertise

  # Verbose logging on another port
  bootmaster-server --port 9000 --log-level debug`,
	Version:      version.Version,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runServer,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: OS config dir)")
	rootCmd.Flags().StringVar(&host, "host", "", "Listen address (default: server.host from config)")
	rootCmd.Flags().IntVar(&port, "port", 0, "Listen port (default: server.port from config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the console over mDNS")
	rootCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default: \"BootMaster on <hostname>\")")
	rootCmd.Flags().StringVar(&langFlag, "lang", "", "Default language of new sessions (fr, en)")
	rootCmd.Flags().IntVar(&maxWorkspaces, "max-sessions", server.DefaultMaxWorkspaces, "Maximum concurrent browser sessions")

	rootCmd.AddCommand(versionCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	srvConfig := buildConfig(cfg, cmd.Flags().Changed("host"), cmd.Flags().Changed("port"), cmd.Flags().Changed("advertise"))

	srv, err := server.New(srvConfig)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

// buildConfig applies the flags the user set over the config file.
func buildConfig(cfg *config.Config, hostSet, portSet, advertiseSet bool) *server.Config {
	c := &server.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		LogLevel:      logLevel,
		Advertise:     cfg.Server.Advertise,
		Instance:      instance,
		MaxWorkspaces: maxWorkspaces,
		Workspace: workspace.Options{
			Config: cfg,
			Lang:   locale.Resolve(langFlag, cfg.Language, os.Getenv("LANG")),
		},
	}
	if hostSet {
		c.Host = host
	}
	if portSet {
		c.Port = port
	}
	if advertiseSet {
		c.Advertise = advertise
	}
	return c
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bootmaster-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
