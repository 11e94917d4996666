package workspace

import (
	"context"
	"testing"

	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/schedule"
)

func TestWatch_ForwardsEveryComponent(t *testing.T) {
	sched := schedule.NewManual()
	ws, err := New(testOptions(sched))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer ws.Close()

	counts := make(map[NotificationKind]int)
	cancel := ws.Watch(func(n Notification) { counts[n.Kind]++ })
	defer cancel()

	ws.Catalog.StartRescan(nil)
	sched.Advance(catalog.DefaultRescanDelay)

	settings := ws.Simulator.Snapshot().Settings
	settings.ImagePath = "Win11_23H2.iso"
	if err := ws.Simulator.Configure(settings); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := ws.Simulator.Start(provisioning.AlwaysConfirm); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := ws.Advisor.Ask(context.Background(), "bonjour"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	ws.SetLanguage(locale.English)

	tests := []struct {
		kind NotificationKind
		min  int
	}{
		{NotifyCatalog, 2},
		{NotifyProvisioning, 2},
		{NotifyAdvisor, 2},
		{NotifyLanguage, 1},
	}
	for _, tt := range tests {
		if counts[tt.kind] < tt.min {
			t.Errorf("%s notifications = %d, want at least %d", tt.kind, counts[tt.kind], tt.min)
		}
	}
}

func TestWatch_Cancel(t *testing.T) {
	sched := schedule.NewManual()
	ws, _ := New(testOptions(sched))
	defer ws.Close()

	calls := 0
	cancel := ws.Watch(func(Notification) { calls++ })
	if ws.Watchers() != 1 {
		t.Fatalf("Watchers() = %d, want 1", ws.Watchers())
	}

	cancel()
	cancel()
	if ws.Watchers() != 0 {
		t.Errorf("Watchers() after cancel = %d, want 0", ws.Watchers())
	}

	ws.Catalog.StartRescan(nil)
	sched.Advance(catalog.DefaultRescanDelay)
	if calls != 0 {
		t.Errorf("cancelled watcher called %d times", calls)
	}
}
