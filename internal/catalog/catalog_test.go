package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/muurk/bootmaster/internal/schedule"
)

type fakeActivity struct {
	active bool
}

func (f *fakeActivity) Active() bool { return f.active }

func newTestCatalog() (*Catalog, *schedule.Manual) {
	sched := schedule.NewManual()
	return New(Options{Scheduler: sched}), sched
}

func TestNew_Defaults(t *testing.T) {
	cat, _ := newTestCatalog()

	devices := cat.List()
	if len(devices) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(devices))
	}
	if devices[0].ID != "usb-1" || devices[0].MediaKind != MediaRemovable {
		t.Errorf("devices[0] = %+v, want usb-1 Removable", devices[0])
	}
	if devices[1].ID != "usb-2" || devices[1].MediaKind != MediaSSD {
		t.Errorf("devices[1] = %+v, want usb-2 SSD", devices[1])
	}
	if cat.Scanning() {
		t.Error("new catalog should not be scanning")
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	cat, _ := newTestCatalog()
	devices := cat.List()
	devices[0].DisplayName = "mutated"

	if cat.List()[0].DisplayName == "mutated" {
		t.Error("List() must not expose internal storage")
	}
}

func TestLookup(t *testing.T) {
	cat, _ := newTestCatalog()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"first seed", "usb-1", false},
		{"second seed", "usb-2", false},
		{"not yet discovered", "usb-3", true},
		{"empty id", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := cat.Lookup(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownDevice) {
					t.Errorf("Lookup(%q) error = %v, want ErrUnknownDevice", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.id, err)
			}
			if d.ID != tt.id {
				t.Errorf("Lookup(%q).ID = %q", tt.id, d.ID)
			}
		})
	}
}

func TestStartRescan_AppendsAfterDelay(t *testing.T) {
	cat, sched := newTestCatalog()

	var result *ScanResult
	if !cat.StartRescan(func(r ScanResult) { result = &r }) {
		t.Fatal("StartRescan() = false, want true")
	}
	if !cat.Scanning() {
		t.Error("catalog should be scanning")
	}

	sched.Advance(1499 * time.Millisecond)
	if cat.Len() != 2 {
		t.Errorf("Len() before delay = %d, want 2", cat.Len())
	}

	sched.Advance(time.Millisecond)
	if cat.Len() != 3 {
		t.Errorf("Len() after delay = %d, want 3", cat.Len())
	}
	if cat.Scanning() {
		t.Error("scanning flag should be cleared")
	}
	if result == nil || result.Added == nil || result.Added.ID != "usb-3" {
		t.Errorf("result = %+v, want usb-3 added", result)
	}
}

func TestStartRescan_IgnoredWhileScanning(t *testing.T) {
	cat, sched := newTestCatalog()

	if !cat.StartRescan(nil) {
		t.Fatal("first StartRescan() = false")
	}
	if cat.StartRescan(nil) {
		t.Error("second StartRescan() while scanning should be ignored")
	}
	if sched.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", sched.Pending())
	}
}

func TestStartRescan_IgnoredWhileProvisioning(t *testing.T) {
	cat, sched := newTestCatalog()
	probe := &fakeActivity{active: true}
	cat.SetActivityProbe(probe)

	for i := 0; i < 5; i++ {
		if cat.StartRescan(nil) {
			t.Fatalf("StartRescan() #%d should be ignored while provisioning", i+1)
		}
	}
	sched.Advance(time.Minute)

	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (catalog must not change)", cat.Len())
	}
}

func TestRescan_RunStartedMidScanFreezesCatalog(t *testing.T) {
	cat, sched := newTestCatalog()
	probe := &fakeActivity{}
	cat.SetActivityProbe(probe)

	cat.StartRescan(nil)
	probe.active = true
	sched.Advance(DefaultRescanDelay)

	if cat.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cat.Len())
	}
	if cat.Scanning() {
		t.Error("scanning flag should be cleared")
	}
}

func TestRescan_NeverExceedsCap(t *testing.T) {
	cat, sched := newTestCatalog()

	for i := 0; i < 10; i++ {
		cat.StartRescan(nil)
		sched.Advance(DefaultRescanDelay)
		if cat.Len() > DefaultMaxDevices {
			t.Fatalf("Len() = %d after %d rescans, cap is %d", cat.Len(), i+1, DefaultMaxDevices)
		}
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}
}

func TestRescan_SequentialLengths(t *testing.T) {
	cat := New(Options{RescanDelay: time.Millisecond})

	lengths := []int{cat.Len()}
	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		result, err := cat.Rescan(ctx)
		cancel()
		if err != nil {
			t.Fatalf("Rescan() #%d error = %v", i+1, err)
		}
		if result.Skipped {
			t.Fatalf("Rescan() #%d was skipped", i+1)
		}
		lengths = append(lengths, len(result.Devices))
	}

	result, err := cat.Rescan(context.Background())
	if err != nil {
		t.Fatalf("third Rescan() error = %v", err)
	}
	if result.Added != nil {
		t.Errorf("third Rescan() added %v past the cap", result.Added)
	}

	want := []int{2, 3, 3}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("lengths = %v, want %v", lengths, want)
			break
		}
	}
}

func TestRescan_ContextCancelled(t *testing.T) {
	cat, sched := newTestCatalog()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cat.Rescan(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Rescan() error = %v, want context.Canceled", err)
	}

	// the scan still completes exactly once
	sched.Advance(DefaultRescanDelay)
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}
}

func TestClose_CancelsPendingScan(t *testing.T) {
	cat, sched := newTestCatalog()

	calls := 0
	cat.Subscribe(func(Snapshot) { calls++ })

	doneCalled := false
	if !cat.StartRescan(func(ScanResult) { doneCalled = true }) {
		t.Fatal("StartRescan() = false")
	}
	cat.Close()

	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d after Close, want 0", sched.Pending())
	}
	sched.Advance(DefaultRescanDelay)

	if doneCalled {
		t.Error("scan completion should not run after Close")
	}
	if cat.Len() != 2 || cat.Scanning() {
		t.Errorf("after Close: Len() = %d, Scanning() = %v, want 2, false", cat.Len(), cat.Scanning())
	}
	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1 (scan start only)", calls)
	}
	if _, err := cat.Lookup("usb-1"); err != nil {
		t.Errorf("Lookup() after Close error = %v", err)
	}

	cat.Close()
}

func TestRescan_Closed(t *testing.T) {
	t.Run("closed before", func(t *testing.T) {
		cat, _ := newTestCatalog()
		cat.Close()

		if cat.StartRescan(nil) {
			t.Error("StartRescan() after Close = true, want false")
		}
		if _, err := cat.Rescan(context.Background()); !errors.Is(err, ErrClosed) {
			t.Errorf("Rescan() error = %v, want ErrClosed", err)
		}
	})

	t.Run("closed while waiting", func(t *testing.T) {
		cat := New(Options{RescanDelay: time.Hour})

		errc := make(chan error, 1)
		go func() {
			_, err := cat.Rescan(context.Background())
			errc <- err
		}()
		for !cat.Scanning() {
			time.Sleep(time.Millisecond)
		}
		cat.Close()

		select {
		case err := <-errc:
			if !errors.Is(err, ErrClosed) {
				t.Errorf("Rescan() error = %v, want ErrClosed", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Rescan() did not return after Close")
		}
	})
}

func TestSubscribe(t *testing.T) {
	cat, sched := newTestCatalog()

	var snaps []Snapshot
	cat.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	cat.StartRescan(nil)
	sched.Advance(DefaultRescanDelay)

	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if !snaps[0].Scanning || len(snaps[0].Devices) != 2 {
		t.Errorf("first snapshot = %+v, want scanning with 2 devices", snaps[0])
	}
	if snaps[1].Scanning || len(snaps[1].Devices) != 3 {
		t.Errorf("second snapshot = %+v, want idle with 3 devices", snaps[1])
	}
}

func TestSyntheticProber_SkipsPresent(t *testing.T) {
	p := SyntheticProber{Devices: []Device{
		{ID: "usb-1"},
		{ID: "usb-9"},
	}}

	d, ok := p.Probe(DefaultDevices())
	if !ok || d.ID != "usb-9" {
		t.Errorf("Probe() = %v, %v, want usb-9", d, ok)
	}

	_, ok = p.Probe([]Device{{ID: "usb-1"}, {ID: "usb-9"}})
	if ok {
		t.Error("Probe() should find nothing when all candidates are present")
	}
}

func TestMediaKind_Text(t *testing.T) {
	tests := []struct {
		input   string
		want    MediaKind
		wantErr bool
	}{
		{"Removable", MediaRemovable, false},
		{"ssd", MediaSSD, false},
		{" USB ", MediaRemovable, false},
		{"floppy", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMediaKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMediaKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMediaKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	data, err := json.Marshal(Device{ID: "usb-2", DisplayName: "x", MediaKind: MediaSSD})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"id":"usb-2","displayName":"x","mediaKind":"SSD"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
