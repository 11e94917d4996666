// Bootmaster is a simulated Windows 11 bootable USB creator for the terminal.
//
// Nothing is ever written to a drive: device detection, formatting and
// copying are simulated with realistic pacing. The tool also ships an
// installation advisor backed by a text-generation API, a preparation guide
// and the commands to package the web console as a desktop launcher.
//
// Usage:
//
//	bootmaster                 # full-screen interface (default)
//	bootmaster create --iso Win11_23H2.iso --device usb-1
//	bootmaster ask "Mon PC est-il compatible ?"
//
// See 'bootmaster --help' for available commands.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/version"
	"github.com/muurk/bootmaster/internal/wizard/tui"
	"github.com/muurk/bootmaster/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	langFlag   string
	configPath string
	logLevel   string
	logFile    string
	compact    bool
)

var rootCmd = &cobra.Command{
	Use:   "bootmaster",
	Short: "Win11 BootMaster - simulated bootable USB creator",
	Long: `Win11 BootMaster prepares a Windows 11 installation drive, in simulation.

Pick a target drive and an ISO image, choose GPT/UEFI or MBR/BIOS and a file
system, and watch the run go through preparation, formatting, copying and
boot sector finalization. No data is ever written.

The full-screen interface also hosts the installation advisor, the
preparation guide and the desktop launcher export. Every screen has a
command-line equivalent for scripting.

The advisor needs an API key in GEMINI_API_KEY (or API_KEY), from the
environment or a .env file in the working directory.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runTUI,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "Interface language (fr, en; default: config, then $LANG)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; default: $"+logging.LogLevelEnvVar+" or silent)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (the interface defaults to bootmaster.log in the config dir)")
	rootCmd.Flags().BoolVar(&compact, "compact", false, "Hide the system status sidebar")

	rootCmd.AddCommand(versionCmd)
}

// setup loads .env credentials and starts logging. The full-screen
// interface owns stdout, so its logs go to a file.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	output := logFile
	if output == "" {
		output = "stderr"
		if !cmd.HasParent() {
			output = defaultLogFile()
		}
	}
	return logging.InitializeWithOutput(logLevel, output)
}

func defaultLogFile() string {
	dir, err := config.GetConfigDir()
	if err != nil {
		return os.DevNull
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return os.DevNull
	}
	return filepath.Join(dir, "bootmaster.log")
}

// loadConfig reads the config selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveLang applies --lang, then the config, then the locale environment.
func resolveLang(cfg *config.Config) locale.Lang {
	return locale.Resolve(langFlag, cfg.Language, os.Getenv("LC_ALL"), os.Getenv("LANG"))
}

// openWorkspace creates the single session a command works on.
func openWorkspace() (*workspace.Workspace, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspace.New(workspace.Options{
		Config: cfg,
		Lang:   resolveLang(cfg),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, cfg, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	ws, cfg, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	opts := tui.Options{
		Compact:    compact,
		ConsoleURL: consoleURL(cfg),
	}
	if err := tui.Run(cmd.Context(), ws, opts); err != nil {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}

// consoleURL is where the configured web console would be reachable.
func consoleURL(cfg *config.Config) string {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bootmaster %s (commit: %s)\n", version.Version, version.Commit)
	},
}
