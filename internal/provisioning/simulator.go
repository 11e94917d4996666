package provisioning

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/schedule"
)

// DefaultTickInterval is the time between one-percent progress steps.
const DefaultTickInterval = 150 * time.Millisecond

// DeviceResolver resolves device ids and reports catalog activity.
// *catalog.Catalog implements it.
type DeviceResolver interface {
	Lookup(id string) (catalog.Device, error)
	Scanning() bool
}

// Confirmer asks the user to accept an irreversible action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm accepts every prompt (non-interactive use).
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

// Options configures a Simulator. Zero values select the defaults.
type Options struct {
	// Name identifies the simulator in logs (usually the workspace id)
	Name string

	// Scheduler runs the tick task (default: schedule.Real)
	Scheduler schedule.Scheduler

	// TickInterval is the time per percent (default: 150ms)
	TickInterval time.Duration

	// Lang selects the stage labels (default: locale.Default)
	Lang locale.Lang

	// Defaults are the initial settings (default: DefaultSettings)
	Defaults *Settings
}

// Simulator is a single provisioning session.
// All methods are safe for concurrent use.
type Simulator struct {
	// emitMu is held from a state change until its events are delivered,
	// so listeners see changes in the order they happened. It is taken
	// before mu and listeners must not call back into the Simulator.
	emitMu sync.Mutex

	mu        sync.Mutex
	name      string
	resolver  DeviceResolver
	sched     schedule.Scheduler
	interval  time.Duration
	msgs      *locale.Messages
	settings  Settings
	stage     Stage
	percent   int
	reason    string
	task      schedule.Task
	run       uint64
	closed    bool
	listeners []func(Event)
}

// NewSimulator creates an idle simulator that resolves devices through resolver.
func NewSimulator(resolver DeviceResolver, opts Options) *Simulator {
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	settings := DefaultSettings()
	if opts.Defaults != nil {
		settings = *opts.Defaults
		settings.ImagePath = imageName(settings.ImagePath)
	}

	return &Simulator{
		name:     opts.Name,
		resolver: resolver,
		sched:    opts.Scheduler,
		interval: opts.TickInterval,
		msgs:     locale.For(opts.Lang),
		settings: settings,
		stage:    StageIdle,
	}
}

// SetLanguage switches the stage labels.
func (s *Simulator) SetLanguage(lang locale.Lang) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = locale.For(lang)
}

// Subscribe registers fn for every progress, transition and settings event.
// Events arrive in the order the changes were made.
func (s *Simulator) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current state.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Active reports whether a run is in progress.
func (s *Simulator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage.Active()
}

// Configure replaces the run settings. It is refused while a run is active.
// The device id must exist in the catalog and only the file name of the
// image path is kept.
func (s *Simulator) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if _, err := s.resolver.Lookup(settings.DeviceID); err != nil {
		return err
	}
	settings.ImagePath = imageName(settings.ImagePath)

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.stage.Active() {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.settings = settings
	ev := Event{Kind: EventSettings, Previous: s.stage, Snapshot: s.snapshotLocked()}
	listeners := s.listeners
	s.mu.Unlock()

	logging.Debug("Settings updated",
		zap.String("workspace", s.name),
		zap.String("device_id", settings.DeviceID),
		zap.String("image", settings.ImagePath),
		zap.String("partition", string(settings.Partition)),
		zap.String("firmware", string(settings.Firmware)),
		zap.String("file_system", string(settings.FileSystem)),
	)
	emit(listeners, ev)
	return nil
}

// Start begins a run after confirmer accepts the erase prompt.
//
// Without an image it returns ErrMissingImage and asks nothing. A refused
// prompt returns ErrNotConfirmed. A call while a run is active, or after a
// run ended without Restart, is ignored and returns nil.
func (s *Simulator) Start(confirmer Confirmer) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.stage != StageIdle {
		s.mu.Unlock()
		logging.Debug("Start ignored", zap.String("workspace", s.name), zap.Stringer("stage", s.stage))
		return nil
	}
	settings := s.settings
	prompt := s.msgs.ConfirmErase
	s.mu.Unlock()

	if settings.ImagePath == "" {
		return ErrMissingImage
	}
	if s.resolver.Scanning() {
		return ErrCatalogBusy
	}
	if _, err := s.resolver.Lookup(settings.DeviceID); err != nil {
		return err
	}
	if confirmer == nil || !confirmer.Confirm(prompt) {
		return ErrNotConfirmed
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.stage != StageIdle {
		// lost a race with another Start
		s.mu.Unlock()
		return nil
	}
	s.run++
	run := s.run
	s.stage = StagePreparing
	s.percent = 0
	s.reason = ""
	s.task = s.sched.Every(s.interval, func() { s.tick(run) })
	ev := Event{Kind: EventTransition, Previous: StageIdle, Snapshot: s.snapshotLocked()}
	listeners := s.listeners
	s.mu.Unlock()

	logging.LogTransition(s.name, StageIdle.String(), StagePreparing.String(), 0)
	emit(listeners, ev)
	return nil
}

func (s *Simulator) tick(run uint64) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || run != s.run || !s.stage.Active() {
		s.mu.Unlock()
		return
	}
	prev := s.stage
	if s.percent < 100 {
		s.percent++
	}
	s.stage = StageFor(s.percent)
	if s.percent >= 100 {
		s.stopTaskLocked()
	}
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	emit(listeners, Event{Kind: EventProgress, Previous: prev, Snapshot: snap})
	if snap.Stage != prev {
		logging.LogTransition(s.name, prev.String(), snap.Stage.String(), snap.Percent)
		emit(listeners, Event{Kind: EventTransition, Previous: prev, Snapshot: snap})
	}
}

// Restart returns a finished simulator to Idle at 0%, keeping the settings.
// It returns ErrRunInProgress, changing nothing, while a run is active.
func (s *Simulator) Restart() error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.stage.Active() {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	prev := s.stage
	s.stage = StageIdle
	s.percent = 0
	s.reason = ""
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	if prev != StageIdle {
		logging.LogTransition(s.name, prev.String(), StageIdle.String(), 0)
		emit(listeners, Event{Kind: EventTransition, Previous: prev, Snapshot: snap})
	}
	return nil
}

// Fail aborts an active run, moving it to Error. It reports whether a run
// was aborted.
func (s *Simulator) Fail(reason string) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || !s.stage.Active() {
		s.mu.Unlock()
		return false
	}
	prev := s.stage
	s.stopTaskLocked()
	s.stage = StageError
	s.reason = reason
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	logging.Warn("Provisioning run failed",
		zap.String("workspace", s.name),
		zap.Stringer("stage", prev),
		zap.Int("percent", snap.Percent),
		zap.String("reason", reason),
	)
	emit(listeners, Event{Kind: EventTransition, Previous: prev, Snapshot: snap})
	return true
}

// Close stops the tick task. The state is left as it was and further
// operations return ErrClosed.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTaskLocked()
	s.listeners = nil
}

func (s *Simulator) stopTaskLocked() {
	if s.task != nil {
		s.task.Stop()
		s.task = nil
	}
}

func (s *Simulator) snapshotLocked() Snapshot {
	return Snapshot{
		Settings: s.settings,
		Stage:    s.stage,
		Percent:  s.percent,
		Label:    label(s.msgs, s.stage, s.percent),
		Reason:   s.reason,
	}
}

// label returns the localized status line for a stage.
func label(m *locale.Messages, stage Stage, percent int) string {
	switch stage {
	case StagePreparing:
		return m.StagePreparing
	case StageFormatting:
		return m.StageFormatting
	case StageCopying:
		return fmt.Sprintf(m.StageCopying, percent)
	case StageFinalizing:
		return m.StageFinalizing
	case StageCompleted:
		return m.StageCompleted
	case StageError:
		return m.StageError
	default:
		return m.StageIdle
	}
}

func emit(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
