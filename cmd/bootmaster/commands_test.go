package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/discovery"
	"github.com/muurk/bootmaster/internal/gemini"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/schedule"
	"github.com/muurk/bootmaster/internal/ui"
	"github.com/muurk/bootmaster/internal/workspace"
)

func newTestWorkspace(t *testing.T, cfg *config.Config, sched schedule.Scheduler) *workspace.Workspace {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	ws, err := workspace.New(workspace.Options{
		Config:     cfg,
		Scheduler:  sched,
		Credential: func() string { return "k" },
		Generator: advisor.GeneratorFunc(func(ctx context.Context, req advisor.Request) (string, error) {
			return "Enable TPM 2.0 in the firmware settings.", nil
		}),
		Lang: locale.English,
	})
	if err != nil {
		t.Fatalf("workspace.New() error = %v", err)
	}
	t.Cleanup(ws.Close)
	return ws
}

func TestMergeSettings(t *testing.T) {
	base := provisioning.DefaultSettings()

	tests := []struct {
		name      string
		iso       string
		device    string
		partition string
		firmware  string
		fs        string
		want      provisioning.Settings
		wantErr   bool
	}{
		{
			name: "no overrides",
			want: base,
		},
		{
			name:      "all overrides",
			iso:       "Win11.iso",
			device:    "usb-2",
			partition: "mbr",
			firmware:  "bios",
			fs:        "fat32",
			want: provisioning.Settings{
				DeviceID:   "usb-2",
				ImagePath:  "Win11.iso",
				Partition:  provisioning.PartitionMBR,
				Firmware:   provisioning.FirmwareBIOS,
				FileSystem: provisioning.FileSystemFAT32,
			},
		},
		{name: "bad partition", partition: "apm", wantErr: true},
		{name: "bad target", firmware: "coreboot", wantErr: true},
		{name: "bad file system", fs: "ext4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeSettings(base, tt.iso, tt.device, tt.partition, tt.firmware, tt.fs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("mergeSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("mergeSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStepOf(t *testing.T) {
	tests := []struct {
		stage provisioning.Stage
		want  int
	}{
		{provisioning.StageIdle, 0},
		{provisioning.StagePreparing, 1},
		{provisioning.StageFormatting, 2},
		{provisioning.StageCopying, 3},
		{provisioning.StageFinalizing, 4},
		{provisioning.StageCompleted, 0},
	}

	for _, tt := range tests {
		if got := stepOf(tt.stage); got != tt.want {
			t.Errorf("stepOf(%v) = %d, want %d", tt.stage, got, tt.want)
		}
	}
	if got := len(runSteps()); got != 4 {
		t.Errorf("runSteps() = %d names, want 4", got)
	}
}

type stepRecord struct {
	step   int
	status ui.StepStatus
}

func TestProvision_Completes(t *testing.T) {
	sched := schedule.NewManual()
	ws := newTestWorkspace(t, nil, sched)
	if err := ws.Simulator.Configure(provisioning.Settings{
		DeviceID: "usb-1", ImagePath: "win.iso",
		Partition: provisioning.PartitionGPT, Firmware: provisioning.FirmwareUEFI, FileSystem: provisioning.FileSystemNTFS,
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	var steps []stepRecord
	lastPercent := -1
	advanced := false
	onStep := func(n int, name string, status ui.StepStatus, message string) {
		steps = append(steps, stepRecord{n, status})
		if status == ui.StepRunning && !advanced {
			// runs every tick synchronously; the loop then sees the end state
			advanced = true
			sched.Advance(time.Minute)
		}
	}

	details, err := provision(context.Background(), ws, provisioning.AlwaysConfirm, onStep, func(p int) { lastPercent = p })
	if err != nil {
		t.Fatalf("provision() error = %v", err)
	}
	if lastPercent != 100 {
		t.Errorf("last percent = %d, want 100", lastPercent)
	}
	if len(details) == 0 || details[1].Value != "win.iso" {
		t.Errorf("details = %v, want the image", details)
	}

	completed := map[int]bool{}
	for _, s := range steps {
		if s.status == ui.StepComplete {
			completed[s.step] = true
		}
	}
	for i := 1; i <= 4; i++ {
		if !completed[i] {
			t.Errorf("step %d was not completed (steps: %v)", i, steps)
		}
	}
	if ws.Watchers() != 0 {
		t.Errorf("Watchers() = %d, want 0 after provision", ws.Watchers())
	}
}

func TestProvision_Cancelled(t *testing.T) {
	ws := newTestWorkspace(t, nil, schedule.NewManual())
	if err := ws.Simulator.Configure(provisioning.Settings{
		DeviceID: "usb-1", ImagePath: "win.iso",
		Partition: provisioning.PartitionGPT, Firmware: provisioning.FirmwareUEFI, FileSystem: provisioning.FileSystemNTFS,
	}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	noStep := func(int, string, ui.StepStatus, string) {}
	_, err := provision(ctx, ws, provisioning.AlwaysConfirm, noStep, func(int) {})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("provision() error = %v, want context.Canceled", err)
	}

	snap := ws.Simulator.Snapshot()
	if snap.Stage != provisioning.StageError {
		t.Errorf("Stage = %v, want Error", snap.Stage)
	}
	if want := locale.For(locale.English).Cancelled; snap.Reason != want {
		t.Errorf("Reason = %q, want %q", snap.Reason, want)
	}
}

func TestProvision_Refused(t *testing.T) {
	tests := []struct {
		name      string
		image     string
		confirmer provisioning.Confirmer
		wantErr   error
	}{
		{"no image", "", provisioning.AlwaysConfirm, provisioning.ErrMissingImage},
		{"declined", "win.iso", provisioning.ConfirmFunc(func(string) bool { return false }), provisioning.ErrNotConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorkspace(t, nil, schedule.NewManual())
			settings := ws.Simulator.Snapshot().Settings
			settings.ImagePath = tt.image
			if err := ws.Simulator.Configure(settings); err != nil {
				t.Fatalf("Configure() error = %v", err)
			}

			_, err := provision(context.Background(), ws, tt.confirmer,
				func(int, string, ui.StepStatus, string) {}, func(int) {})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("provision() error = %v, want %v", err, tt.wantErr)
			}
			if got := ws.Simulator.Snapshot().Stage; got != provisioning.StageIdle {
				t.Errorf("Stage = %v, want Idle", got)
			}
		})
	}
}

func TestListDevices(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.RescanDelay = time.Millisecond
	ws := newTestWorkspace(t, cfg, nil)

	var buf bytes.Buffer
	if err := listDevices(context.Background(), &buf, ws, true, "json"); err != nil {
		t.Fatalf("listDevices() error = %v", err)
	}

	var devices []catalog.Device
	if err := json.Unmarshal(buf.Bytes(), &devices); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(devices) != 3 {
		t.Fatalf("devices = %d, want 3", len(devices))
	}
	if devices[2].ID != catalog.SyntheticDevice.ID {
		t.Errorf("third device = %q, want %q", devices[2].ID, catalog.SyntheticDevice.ID)
	}

	buf.Reset()
	if err := listDevices(context.Background(), &buf, ws, false, "detailed"); err != nil {
		t.Fatalf("listDevices() error = %v", err)
	}
	for _, d := range devices {
		if !strings.Contains(buf.String(), d.ID) {
			t.Errorf("detailed output is missing %s", d.ID)
		}
	}
}

func TestAsk(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	ws := newTestWorkspace(t, nil, schedule.NewManual())

	var buf bytes.Buffer
	if err := ask(context.Background(), &buf, ws, "How do I enable TPM?"); err != nil {
		t.Fatalf("ask() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "How do I enable TPM?") {
		t.Error("output should echo the question")
	}
	if !strings.Contains(out, "Enable TPM 2.0") {
		t.Error("output should contain the reply")
	}
	if got := len(ws.Advisor.Transcript()); got != 3 {
		t.Errorf("transcript length = %d, want 3", got)
	}

	if err := ask(context.Background(), &buf, ws, "   "); !errors.Is(err, advisor.ErrEmptyInput) {
		t.Errorf("ask() with blank text error = %v, want ErrEmptyInput", err)
	}
}

func TestAsk_ShowsTroubleshootingHint(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{"quota", gemini.NewHTTPError(429, "Resource exhausted"), "quota was exceeded"},
		{"rejected key", gemini.NewAuthError(403, "denied"), "API key was rejected"},
		{"empty reply", nil, "could not be read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := workspace.New(workspace.Options{
				Config:     config.Default(),
				Scheduler:  schedule.NewManual(),
				Credential: func() string { return "k" },
				Generator: advisor.GeneratorFunc(func(ctx context.Context, req advisor.Request) (string, error) {
					return "", tt.err
				}),
				Lang: locale.English,
			})
			if err != nil {
				t.Fatalf("workspace.New() error = %v", err)
			}
			defer ws.Close()

			var buf bytes.Buffer
			if err := ask(context.Background(), &buf, ws, "Why GPT?"); err != nil {
				t.Fatalf("ask() error = %v", err)
			}

			// undo box borders and wrapping
			out := strings.Join(strings.Fields(strings.ReplaceAll(buf.String(), "║", " ")), " ")
			if !strings.Contains(buf.String(), "WARNING") {
				t.Error("output should contain a warning box")
			}
			if !strings.Contains(out, tt.wantHint) {
				t.Errorf("output = %q, want it to contain %q", out, tt.wantHint)
			}
		})
	}
}

func TestAsk_NoHintOnSuccess(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	ws := newTestWorkspace(t, nil, schedule.NewManual())

	var buf bytes.Buffer
	if err := ask(context.Background(), &buf, ws, "Why GPT?"); err != nil {
		t.Fatalf("ask() error = %v", err)
	}
	if strings.Contains(buf.String(), "WARNING") {
		t.Errorf("output = %q, want no warning after a reply", buf.String())
	}
}

func TestPrintConsoles(t *testing.T) {
	var empty bytes.Buffer
	printConsoles(&empty, nil)
	if !strings.Contains(empty.String(), "No consoles found") {
		t.Errorf("empty output = %q", empty.String())
	}

	var buf bytes.Buffer
	printConsoles(&buf, []*discovery.Console{{
		Instance: "BootMaster on studio",
		IP:       "192.168.1.20",
		Port:     8089,
		Version:  "1.0.0",
		Metadata: map[string]string{"version": "1.0.0", "lang": "fr"},
	}})

	out := buf.String()
	for _, want := range []string{"BootMaster on studio", "http://192.168.1.20:8089", "1.0.0", "nativefier"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 8089, "http://127.0.0.1:8089"},
		{"0.0.0.0", 9000, "http://localhost:9000"},
		{"", 8089, "http://localhost:8089"},
		{"::1", 8089, "http://[::1]:8089"},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.Server.Host = tt.host
		cfg.Server.Port = tt.port
		if got := consoleURL(cfg); got != tt.want {
			t.Errorf("consoleURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() {
		configPath = ""
		forceInit = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		rootCmd.SetOut(&buf)
		rootCmd.SetErr(&buf)
		rootCmd.SetArgs(append([]string{"--config", path}, args...))
		err := rootCmd.ExecuteContext(context.Background())
		return buf.String(), err
	}

	out, err := run("config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	if _, err := run("config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := run("config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err = run("config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"max_context_turns", "tick_interval", "advertise"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show is missing %q", want)
		}
	}
}
