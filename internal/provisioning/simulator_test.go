package provisioning

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/schedule"
)

type fixture struct {
	sim   *Simulator
	cat   *catalog.Catalog
	sched *schedule.Manual
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	sched := schedule.NewManual()
	cat := catalog.New(catalog.Options{Scheduler: sched})
	sim := NewSimulator(cat, Options{Name: "test", Scheduler: sched})
	cat.SetActivityProbe(sim)
	t.Cleanup(sim.Close)
	return fixture{sim: sim, cat: cat, sched: sched}
}

func (f fixture) configure(t *testing.T, image string) {
	t.Helper()
	settings := DefaultSettings()
	settings.ImagePath = image
	if err := f.sim.Configure(settings); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
}

// ticks advances the clock by n tick intervals.
func (f fixture) ticks(n int) {
	f.sched.Advance(time.Duration(n) * DefaultTickInterval)
}

func TestStageFor(t *testing.T) {
	tests := []struct {
		percent int
		want    Stage
	}{
		{0, StagePreparing},
		{4, StagePreparing},
		{5, StageFormatting},
		{24, StageFormatting},
		{25, StageCopying},
		{89, StageCopying},
		{90, StageFinalizing},
		{99, StageFinalizing},
		{100, StageCompleted},
		{-3, StagePreparing},
		{250, StageCompleted},
	}

	for _, tt := range tests {
		if got := StageFor(tt.percent); got != tt.want {
			t.Errorf("StageFor(%d) = %v, want %v", tt.percent, got, tt.want)
		}
	}
}

func TestNewSimulator_Defaults(t *testing.T) {
	f := newFixture(t)
	snap := f.sim.Snapshot()

	if snap.Stage != StageIdle || snap.Percent != 0 {
		t.Errorf("initial state = %v %d%%, want Idle 0%%", snap.Stage, snap.Percent)
	}
	want := DefaultSettings()
	if snap.Settings != want {
		t.Errorf("settings = %+v, want %+v", snap.Settings, want)
	}
	if snap.Label != locale.For(locale.French).StageIdle {
		t.Errorf("label = %q", snap.Label)
	}
}

func TestStart_MissingImage(t *testing.T) {
	f := newFixture(t)

	asked := false
	err := f.sim.Start(ConfirmFunc(func(string) bool {
		asked = true
		return true
	}))

	if !errors.Is(err, ErrMissingImage) {
		t.Fatalf("Start() error = %v, want ErrMissingImage", err)
	}
	if asked {
		t.Error("confirmation must not be requested without an image")
	}
	if snap := f.sim.Snapshot(); snap.Stage != StageIdle || snap.Percent != 0 {
		t.Errorf("state = %v %d%%, want Idle 0%%", snap.Stage, snap.Percent)
	}
	if f.sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", f.sched.Pending())
	}
}

func TestStart_Refused(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "Win11_23H2_French_x64.iso")

	var prompt string
	err := f.sim.Start(ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	}))

	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("Start() error = %v, want ErrNotConfirmed", err)
	}
	if prompt != locale.For(locale.French).ConfirmErase {
		t.Errorf("prompt = %q", prompt)
	}
	if f.sim.Snapshot().Stage != StageIdle {
		t.Error("refused start must leave the simulator idle")
	}
}

func TestStart_NilConfirmer(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")

	if err := f.sim.Start(nil); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("Start(nil) error = %v, want ErrNotConfirmed", err)
	}
}

func TestStart_WhileScanning(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	f.cat.StartRescan(nil)

	if err := f.sim.Start(AlwaysConfirm); !errors.Is(err, ErrCatalogBusy) {
		t.Errorf("Start() error = %v, want ErrCatalogBusy", err)
	}
}

func TestFullRun(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")

	var transitions []Stage
	last := -1
	f.sim.Subscribe(func(ev Event) {
		if ev.Snapshot.Percent < last {
			t.Errorf("percent went from %d to %d", last, ev.Snapshot.Percent)
		}
		if ev.Snapshot.Percent < 0 || ev.Snapshot.Percent > 100 {
			t.Errorf("percent %d out of range", ev.Snapshot.Percent)
		}
		last = ev.Snapshot.Percent
		if ev.Kind == EventTransition {
			transitions = append(transitions, ev.Snapshot.Stage)
		}
	})

	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !f.sim.Active() {
		t.Fatal("simulator should be active after Start")
	}

	f.ticks(100)

	snap := f.sim.Snapshot()
	if snap.Stage != StageCompleted || snap.Percent != 100 {
		t.Errorf("final state = %v %d%%, want Completed 100%%", snap.Stage, snap.Percent)
	}
	want := []Stage{StagePreparing, StageFormatting, StageCopying, StageFinalizing, StageCompleted}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions = %v, want %v", transitions, want)
			break
		}
	}
	if f.sched.Pending() != 0 {
		t.Errorf("tick task still scheduled after completion (%d pending)", f.sched.Pending())
	}

	f.ticks(50)
	if got := f.sim.Snapshot().Percent; got != 100 {
		t.Errorf("percent after completion = %d, want 100", got)
	}
}

func TestProgressLabels(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		advanceTo int
		want      string
	}{
		{1, "Préparation des fichiers..."},
		{5, "Formatage de la clé (FAT32)..."},
		{37, "Copie des fichiers ISO (37%)..."},
		{95, "Finalisation du secteur de boot..."},
		{100, "Opération réussie !"},
	}

	at := 0
	for _, tt := range tests {
		f.ticks(tt.advanceTo - at)
		at = tt.advanceTo
		if got := f.sim.Snapshot().Label; got != tt.want {
			t.Errorf("label at %d%% = %q, want %q", at, got, tt.want)
		}
	}
}

func TestStart_IgnoredWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	f.ticks(10)

	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Errorf("second Start() error = %v, want nil", err)
	}
	if f.sched.Pending() != 1 {
		t.Errorf("Pending() = %d, want a single tick task", f.sched.Pending())
	}
	if got := f.sim.Snapshot().Percent; got != 10 {
		t.Errorf("percent = %d, want 10", got)
	}
}

func TestStart_IgnoredAfterCompletion(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)
	f.ticks(100)

	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Errorf("Start() after completion error = %v, want nil", err)
	}
	if snap := f.sim.Snapshot(); snap.Stage != StageCompleted {
		t.Errorf("stage = %v, want Completed", snap.Stage)
	}
}

func TestRestart(t *testing.T) {
	tests := []struct {
		name      string
		ticks     int
		fail      bool
		wantErr   error
		wantStage Stage
	}{
		{"from idle", -1, false, nil, StageIdle},
		{"during formatting", 10, false, ErrRunInProgress, StageFormatting},
		{"during finalizing", 95, false, ErrRunInProgress, StageFinalizing},
		{"after completion", 100, false, nil, StageIdle},
		{"after failure", 30, true, nil, StageIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.configure(t, "win.iso")
			if tt.ticks >= 0 {
				if err := f.sim.Start(AlwaysConfirm); err != nil {
					t.Fatalf("Start() error = %v", err)
				}
				f.ticks(tt.ticks)
			}
			if tt.fail {
				f.sim.Fail("cable pulled")
			}
			before := f.sim.Snapshot()

			err := f.sim.Restart()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restart() error = %v, want %v", err, tt.wantErr)
			}

			after := f.sim.Snapshot()
			if after.Stage != tt.wantStage {
				t.Errorf("stage = %v, want %v", after.Stage, tt.wantStage)
			}
			if tt.wantErr != nil && after != before {
				t.Errorf("refused restart changed state: %+v -> %+v", before, after)
			}
			if tt.wantErr == nil && after.Percent != 0 {
				t.Errorf("percent = %d, want 0", after.Percent)
			}
			if after.ImagePath != "win.iso" {
				t.Errorf("settings lost on restart: %+v", after.Settings)
			}
		})
	}
}

func TestRestart_ThenRunAgain(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)
	f.ticks(100)

	if err := f.sim.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if err := f.sim.Start(AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	f.ticks(30)

	if snap := f.sim.Snapshot(); snap.Stage != StageCopying || snap.Percent != 30 {
		t.Errorf("state = %v %d%%, want Copying 30%%", snap.Stage, snap.Percent)
	}
}

func TestFail(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")

	if f.sim.Fail("idle") {
		t.Error("Fail() on an idle simulator should report false")
	}

	_ = f.sim.Start(AlwaysConfirm)
	f.ticks(40)
	if !f.sim.Fail("write error") {
		t.Fatal("Fail() = false during a run")
	}

	snap := f.sim.Snapshot()
	if snap.Stage != StageError || snap.Reason != "write error" {
		t.Errorf("state = %v (%q), want Error (write error)", snap.Stage, snap.Reason)
	}
	if snap.Percent != 40 {
		t.Errorf("percent = %d, want 40", snap.Percent)
	}
	f.ticks(10)
	if got := f.sim.Snapshot().Percent; got != 40 {
		t.Errorf("ticking continued after Fail: %d%%", got)
	}
}

func TestFail_DuringTickDelivery(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)
	f.ticks(30)

	var (
		mu     sync.Mutex
		stages []Stage
		once   sync.Once
	)
	delivering := make(chan struct{})
	release := make(chan struct{})
	f.sim.Subscribe(func(ev Event) {
		if ev.Kind == EventProgress {
			once.Do(func() {
				close(delivering)
				<-release
			})
		}
		mu.Lock()
		stages = append(stages, ev.Snapshot.Stage)
		mu.Unlock()
	})

	ticked := make(chan struct{})
	go func() {
		f.ticks(1)
		close(ticked)
	}()
	<-delivering

	failed := make(chan struct{})
	go func() {
		f.sim.Fail("unplugged")
		close(failed)
	}()

	select {
	case <-failed:
		t.Error("Fail() returned while a tick was still being delivered")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-ticked
	<-failed

	mu.Lock()
	defer mu.Unlock()
	want := []Stage{StageCopying, StageError}
	if len(stages) != len(want) || stages[0] != want[0] || stages[1] != want[1] {
		t.Errorf("delivered stages = %v, want %v", stages, want)
	}
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{"defaults", func(*Settings) {}, nil},
		{"mbr bios fat32", func(s *Settings) {
			s.Partition, s.Firmware, s.FileSystem = PartitionMBR, FirmwareBIOS, FileSystemFAT32
		}, nil},
		{"second device", func(s *Settings) { s.DeviceID = "usb-2" }, nil},
		{"undiscovered device", func(s *Settings) { s.DeviceID = "usb-3" }, ErrUnknownDevice},
		{"bad partition", func(s *Settings) { s.Partition = "APM" }, ErrInvalidSettings},
		{"bad firmware", func(s *Settings) { s.Firmware = "OpenFirmware" }, ErrInvalidSettings},
		{"bad file system", func(s *Settings) { s.FileSystem = "exFAT" }, ErrInvalidSettings},
		{"no device", func(s *Settings) { s.DeviceID = "" }, ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			settings := DefaultSettings()
			tt.mutate(&settings)

			err := f.sim.Configure(settings)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Configure() error = %v, want %v", err, tt.wantErr)
			}
			got := f.sim.Snapshot().Settings
			if tt.wantErr == nil && got != settings {
				t.Errorf("settings = %+v, want %+v", got, settings)
			}
			if tt.wantErr != nil && got != DefaultSettings() {
				t.Errorf("rejected Configure changed settings to %+v", got)
			}
		})
	}
}

func TestConfigure_KeepsFileNameOnly(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/me/Downloads/Win11.iso", "Win11.iso"},
		{`C:\Users\me\Downloads\Win11.iso`, "Win11.iso"},
		{"Win11.iso", "Win11.iso"},
		{"   ", ""},
	}

	for _, tt := range tests {
		f := newFixture(t)
		f.configure(t, tt.path)
		if got := f.sim.Snapshot().ImagePath; got != tt.want {
			t.Errorf("ImagePath for %q = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestConfigure_RefusedWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)

	settings := DefaultSettings()
	settings.DeviceID = "usb-2"
	if err := f.sim.Configure(settings); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("Configure() error = %v, want ErrRunInProgress", err)
	}
}

func TestCatalogFrozenDuringRun(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)

	for i := 0; i < 5; i++ {
		if f.cat.StartRescan(nil) {
			t.Fatal("rescan accepted during a run")
		}
		f.ticks(10)
	}
	if f.cat.Len() != 2 {
		t.Errorf("catalog length = %d, want 2", f.cat.Len())
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	f.configure(t, "win.iso")
	_ = f.sim.Start(AlwaysConfirm)
	f.ticks(12)

	f.sim.Close()
	f.ticks(50)

	snap := f.sim.Snapshot()
	if snap.Stage != StageFormatting || snap.Percent != 12 {
		t.Errorf("state after Close = %v %d%%, want Formatting 12%%", snap.Stage, snap.Percent)
	}
	if f.sched.Pending() != 0 {
		t.Errorf("Pending() = %d after Close", f.sched.Pending())
	}
	if err := f.sim.Restart(); !errors.Is(err, ErrClosed) {
		t.Errorf("Restart() after Close error = %v, want ErrClosed", err)
	}
}

func TestSetLanguage(t *testing.T) {
	f := newFixture(t)
	f.sim.SetLanguage(locale.English)

	if got := f.sim.Snapshot().Label; got != locale.For(locale.English).StageIdle {
		t.Errorf("label = %q, want English idle label", got)
	}
}

func TestRealScheduler(t *testing.T) {
	cat := catalog.New(catalog.Options{})
	sim := NewSimulator(cat, Options{TickInterval: time.Millisecond})
	defer sim.Close()

	settings := DefaultSettings()
	settings.ImagePath = "win.iso"
	if err := sim.Configure(settings); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	done := make(chan struct{})
	sim.Subscribe(func(ev Event) {
		if ev.Kind == EventTransition && ev.Snapshot.Stage == StageCompleted {
			close(done)
		}
	})
	if err := sim.Start(AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not complete, state %+v", sim.Snapshot())
	}
}

func TestStage_Text(t *testing.T) {
	var s Stage
	if err := s.UnmarshalText([]byte("finalizing")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if s != StageFinalizing {
		t.Errorf("stage = %v, want Finalizing", s)
	}
	if err := s.UnmarshalText([]byte("melting")); err == nil {
		t.Error("UnmarshalText(melting) should fail")
	}
}
