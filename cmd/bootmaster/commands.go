package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/discovery"
	"github.com/muurk/bootmaster/internal/gemini"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/ui"
	"github.com/muurk/bootmaster/internal/urls"
	"github.com/muurk/bootmaster/internal/wizard/tui"
	"github.com/muurk/bootmaster/internal/workspace"
)

// Command flags
var (
	rescan       bool
	outputFormat string
	isoPath      string
	deviceID     string
	partition    string
	target       string
	fileSystem   string
	assumeYes    bool
	scanTimeout  int
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(guideCmd)
	rootCmd.AddCommand(consolesCmd)
}

// devicesCmd lists the simulated target drives
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List target drives",
	Long: `List the drives a bootable image can be written to.

With --rescan a simulated detection runs first; it may find one new drive,
up to the catalog limit.`,
	Example: `  # List drives
  bootmaster devices

  # Detect new drives, then list
  bootmaster devices --rescan

  # JSON output for scripting
  bootmaster devices --format json`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&rescan, "rescan", false, "Run a detection before listing")
	devicesCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	ws, _, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()
	return listDevices(cmd.Context(), cmd.OutOrStdout(), ws, rescan, outputFormat)
}

func listDevices(ctx context.Context, w io.Writer, ws *workspace.Workspace, rescan bool, format string) error {
	msgs := ws.Messages()

	var added *catalog.Device
	if rescan {
		if format != "json" {
			_, _ = fmt.Fprintln(w, msgs.Searching)
		}
		result, err := ws.Catalog.Rescan(ctx)
		if err != nil {
			return fmt.Errorf("rescan failed: %w", err)
		}
		added = result.Added
	}

	devices := ws.Catalog.List()
	if format == "json" {
		data, err := json.MarshalIndent(devices, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	p := ui.NewPrinter(w)
	panel := ui.NewPanel(msgs.TargetDevice, "").SetWidth(p.Width())
	for _, d := range devices {
		line := fmt.Sprintf("%-8s %s  [%s]", d.ID, d.DisplayName, d.MediaKind)
		if added != nil && d.ID == added.ID {
			line += "  " + ui.SuccessMarker
		}
		panel.AddLine(line)
	}
	p.Println(panel.Render())
	return nil
}

// createCmd runs a simulated provisioning
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a bootable drive (simulated)",
	Long: `Run the simulated creation of a Windows 11 installation drive.

The run erases nothing, but still asks for the erase confirmation a real
tool would ask. Use --yes to skip it in scripts; without a terminal on
stdin the confirmation is refused.

Settings not given on the command line come from the config file.`,
	Example: `  # GPT/UEFI on the default drive
  bootmaster create --iso ~/Downloads/Win11_23H2_French_x64.iso

  # Legacy BIOS machine, FAT32, no prompt
  bootmaster create --iso Win11.iso --device usb-2 --partition mbr --target bios --fs fat32 --yes`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&isoPath, "iso", "", "Windows 11 ISO image (required)")
	createCmd.Flags().StringVar(&deviceID, "device", "", "Target drive id (see 'bootmaster devices')")
	createCmd.Flags().StringVar(&partition, "partition", "", "Partition scheme (gpt, mbr)")
	createCmd.Flags().StringVar(&target, "target", "", "Target firmware (uefi, bios)")
	createCmd.Flags().StringVar(&fileSystem, "fs", "", "File system (ntfs, fat32)")
	createCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for the erase confirmation")
	_ = createCmd.MarkFlagRequired("iso")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ws, _, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	settings, err := mergeSettings(ws.Simulator.Snapshot().Settings, isoPath, deviceID, partition, target, fileSystem)
	if err != nil {
		return err
	}
	if err := ws.Simulator.Configure(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	var confirmer provisioning.Confirmer = provisioning.AlwaysConfirm
	if !assumeYes {
		if !ui.IsTerminal(os.Stdin) {
			return fmt.Errorf("%w: stdin is not a terminal, use --yes", provisioning.ErrNotConfirmed)
		}
		confirmer = newEraseConfirmer(ws.Messages(), cmd.InOrStdin(), cmd.OutOrStdout())
	}

	snap := ws.Simulator.Snapshot()
	msgs := ws.Messages()
	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   msgs.CreatorTitle,
		Command: "bootmaster create",
		Params: []ui.Param{
			{Key: msgs.TargetDevice, Value: snap.DeviceID},
			{Key: msgs.ImageLabel, Value: snap.ImagePath},
			{Key: msgs.PartitionLabel, Value: string(snap.Partition)},
			{Key: msgs.TargetLabel, Value: string(snap.Firmware)},
			{Key: msgs.FileSystemLabel, Value: string(snap.FileSystem)},
		},
		StepNames:      runSteps(),
		SuccessTitle:   msgs.StageCompleted,
		SuccessMessage: msgs.CompletionMessage,
		Troubleshooting: []string{
			"Check the drive id with 'bootmaster devices'",
			"Official images: " + urls.Windows11Download,
			"Real drives: " + urls.Rufus,
		},
		Output: cmd.OutOrStdout(),
	})

	return runner.Run(cmd.Context(), func(ctx context.Context, onStep ui.StepCallback, onPercent func(int)) ([]ui.Param, error) {
		return provision(ctx, ws, confirmer, onStep, onPercent)
	})
}

// mergeSettings overrides base with the non-empty flag values.
func mergeSettings(base provisioning.Settings, iso, device, part, firmware, fs string) (provisioning.Settings, error) {
	s := base
	if iso != "" {
		s.ImagePath = iso
	}
	if device != "" {
		s.DeviceID = device
	}
	if part != "" {
		v, err := provisioning.ParsePartitionScheme(part)
		if err != nil {
			return s, fmt.Errorf("--partition: %w", err)
		}
		s.Partition = v
	}
	if firmware != "" {
		v, err := provisioning.ParseTargetFirmware(firmware)
		if err != nil {
			return s, fmt.Errorf("--target: %w", err)
		}
		s.Firmware = v
	}
	if fs != "" {
		v, err := provisioning.ParseFileSystem(fs)
		if err != nil {
			return s, fmt.Errorf("--fs: %w", err)
		}
		s.FileSystem = v
	}
	return s, nil
}

// newEraseConfirmer builds the terminal prompt shown before a run.
func newEraseConfirmer(msgs *locale.Messages, in io.Reader, out io.Writer) *ui.Confirmer {
	c := ui.NewConfirmer(in, out)
	c.Title = strings.ToUpper(msgs.CreatorTitle)
	c.Warnings = []string{msgs.SecurityNote}
	return c
}

// runStages are the stages a run reports as steps, in order.
var runStages = []provisioning.Stage{
	provisioning.StagePreparing,
	provisioning.StageFormatting,
	provisioning.StageCopying,
	provisioning.StageFinalizing,
}

func runSteps() []string {
	names := make([]string, len(runStages))
	for i, st := range runStages {
		names[i] = st.String()
	}
	return names
}

// stepOf returns the 1-based step number of an active stage, or 0.
func stepOf(stage provisioning.Stage) int {
	for i, st := range runStages {
		if st == stage {
			return i + 1
		}
	}
	return 0
}

// provision starts a run on ws and reports it until it ends. Cancelling
// ctx aborts the run.
func provision(ctx context.Context, ws *workspace.Workspace, confirmer provisioning.Confirmer, onStep ui.StepCallback, onPercent func(int)) ([]ui.Param, error) {
	changed := make(chan struct{}, 1)
	unwatch := ws.Watch(func(n workspace.Notification) {
		if n.Kind != workspace.NotifyProvisioning {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unwatch()

	if err := ws.Simulator.Start(confirmer); err != nil {
		return nil, err
	}

	step := 0
	for {
		snap := ws.Simulator.Snapshot()
		onPercent(snap.Percent)

		switch {
		case snap.Stage == provisioning.StageCompleted:
			for ; step <= len(runStages); step++ {
				if step > 0 {
					onStep(step, "", ui.StepComplete, "")
				}
			}
			return []ui.Param{
				{Key: "Device", Value: snap.DeviceID},
				{Key: "Image", Value: snap.ImagePath},
			}, nil

		case snap.Stage == provisioning.StageError:
			if step > 0 {
				onStep(step, "", ui.StepFailed, snap.Reason)
			}
			reason := snap.Reason
			if reason == "" {
				reason = snap.Label
			}
			return nil, errors.New(reason)

		case snap.Stage.Active():
			current := stepOf(snap.Stage)
			for ; step < current; step++ {
				if step > 0 {
					onStep(step, "", ui.StepComplete, "")
				}
			}
			onStep(current, "", ui.StepRunning, snap.Label)

		default:
			return nil, fmt.Errorf("run did not start (stage %s)", snap.Stage)
		}

		select {
		case <-changed:
		case <-ctx.Done():
			ws.Simulator.Fail(ws.Messages().Cancelled)
			return nil, ctx.Err()
		}
	}
}

// askCmd sends one question to the advisor
var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the installation advisor",
	Long: `Send one question to the installation advisor and print the answer.

The advisor needs an API key in GEMINI_API_KEY (or API_KEY). Without one,
or when the service fails, the standard fallback message is printed.`,
	Example: `  bootmaster ask "Comment activer le TPM 2.0 ?"
  bootmaster ask --lang en How do I enable Secure Boot`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ws, _, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()
	return ask(cmd.Context(), cmd.OutOrStdout(), ws, strings.Join(args, " "))
}

func ask(ctx context.Context, w io.Writer, ws *workspace.Workspace, question string) error {
	msgs := ws.Messages()
	p := ui.NewPrinter(w)

	if config.APIKey() == "" {
		ui.PrintWarning(w, "No API key set",
			ui.Param{Key: "Variables", Value: strings.Join(config.APIKeyEnvVars, ", ")},
			ui.Param{Key: "Create one", Value: urls.GeminiAPIKeys},
		)
	}

	turn, err := ws.Advisor.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("advisor: %w", err)
	}

	p.PrintTurn("›", true, question)
	p.PrintTurn("◆ "+msgs.AdvisorTitle, false, turn.Text)
	p.Println(ui.StepNoteStyle.Render(msgs.Disclaimer))

	// The missing key was already reported above.
	if err := ws.Advisor.LastError(); err != nil && !errors.Is(err, advisor.ErrMissingCredential) {
		p.Println(ui.NewWarningResult(gemini.GetShortErrorMessage(err)).
			SetWidth(p.Width()).
			SetMessage(gemini.GetTroubleshootingHint(err)).
			Render())
	}
	return nil
}

// guideCmd prints the preparation guide
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the preparation guide",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		msgs := locale.For(resolveLang(cfg))
		return ui.RenderOnce(cmd.OutOrStdout(), tui.RenderGuide(msgs, ui.GetTerminalWidth()))
	},
}

// consolesCmd browses for web consoles on the network
var consolesCmd = &cobra.Command{
	Use:   "consoles",
	Short: "Find BootMaster web consoles on the network",
	Long: `Browse mDNS for web consoles started with 'bootmaster-server --advertise'
and print their addresses, ready to be packaged with nativefier.`,
	Example: `  bootmaster consoles
  bootmaster consoles --timeout 10`,
	Args: cobra.NoArgs,
	RunE: runConsoles,
}

func init() {
	consolesCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
}

func runConsoles(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Browsing %s (timeout: %ds)...\n\n", discovery.ServiceType, scanTimeout)

	consoles, err := discovery.Scan(cmd.Context(), time.Duration(scanTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	printConsoles(w, consoles)
	return nil
}

func printConsoles(w io.Writer, consoles []*discovery.Console) {
	if len(consoles) == 0 {
		_, _ = fmt.Fprintln(w, "No consoles found.")
		_, _ = fmt.Fprintln(w, "\nTroubleshooting:")
		_, _ = fmt.Fprintln(w, "  - Start one with 'bootmaster-server --advertise'")
		_, _ = fmt.Fprintln(w, "  - Check that multicast DNS is allowed on this network")
		_, _ = fmt.Fprintln(w, "  - Try increasing --timeout")
		return
	}

	_, _ = fmt.Fprintf(w, "Found %d console(s):\n\n", len(consoles))
	for i, c := range consoles {
		_, _ = fmt.Fprintf(w, "%d. %s\n", i+1, c.Instance)
		_, _ = fmt.Fprintf(w, "   URL:      %s\n", c.BaseURL())
		if c.Version != "" {
			_, _ = fmt.Fprintf(w, "   Version:  %s\n", c.Version)
		}
		if lang := c.GetMetadata("lang"); lang != "" {
			_, _ = fmt.Fprintf(w, "   Language: %s\n", lang)
		}
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintf(w, "Package one as a desktop app:\n  %s\n", tui.NativefierCommands(consoles[0].BaseURL())[1])
}
