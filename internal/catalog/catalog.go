package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/schedule"
)

const (
	// DefaultRescanDelay is how long a simulated hardware scan takes
	DefaultRescanDelay = 1500 * time.Millisecond

	// DefaultMaxDevices caps the catalog size for the lifetime of a session
	DefaultMaxDevices = 3
)

var (
	// ErrUnknownDevice is returned when a device id is not in the catalog.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrClosed is returned by Rescan after Close.
	ErrClosed = errors.New("catalog closed")
)

// ActivityProbe reports whether a provisioning run is in progress.
type ActivityProbe interface {
	Active() bool
}

// Prober produces the device a rescan discovers.
type Prober interface {
	// Probe returns a device that is not already in current, or false
	// if there is nothing new to find.
	Probe(current []Device) (Device, bool)
}

// SyntheticProber hands out its devices in order, skipping ids that are
// already present.
type SyntheticProber struct {
	Devices []Device
}

// Probe implements Prober
func (p SyntheticProber) Probe(current []Device) (Device, bool) {
	for _, candidate := range p.Devices {
		if !containsID(current, candidate.ID) {
			return candidate, true
		}
	}
	return Device{}, false
}

// Options configures a Catalog. Zero values select the defaults.
type Options struct {
	// Devices seeds the catalog (default: DefaultDevices)
	Devices []Device

	// RescanDelay is the simulated scan duration (default: 1.5s)
	RescanDelay time.Duration

	// MaxDevices is the catalog cap (default: 3)
	MaxDevices int

	// Scheduler runs the delayed scan completion (default: schedule.Real)
	Scheduler schedule.Scheduler

	// Prober supplies discovered devices (default: SyntheticDevice only)
	Prober Prober
}

// Snapshot is the observable state of the catalog.
type Snapshot struct {
	Devices  []Device `json:"devices"`
	Scanning bool     `json:"scanning"`
}

// ScanResult reports the outcome of one rescan.
type ScanResult struct {
	// Added is the discovered device, or nil when the catalog was full
	Added *Device `json:"added,omitempty"`

	// Skipped is true when the rescan was a no-op (busy)
	Skipped bool `json:"skipped"`

	// Devices is the catalog after the scan
	Devices []Device `json:"devices"`
}

// Catalog is the in-memory list of selectable target drives.
// All methods are safe for concurrent use.
type Catalog struct {
	mu         sync.Mutex
	devices    []Device
	scanning   bool
	maxDevices int
	delay      time.Duration
	sched      schedule.Scheduler
	prober     Prober
	activity   ActivityProbe
	listeners  []func(Snapshot)
	task       schedule.Task
	closed     bool
	done       chan struct{}
}

// New creates a catalog seeded from opts.
func New(opts Options) *Catalog {
	seed := opts.Devices
	if seed == nil {
		seed = DefaultDevices()
	}
	if opts.RescanDelay <= 0 {
		opts.RescanDelay = DefaultRescanDelay
	}
	if opts.MaxDevices <= 0 {
		opts.MaxDevices = DefaultMaxDevices
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	if opts.Prober == nil {
		opts.Prober = SyntheticProber{Devices: []Device{SyntheticDevice}}
	}

	devices := make([]Device, len(seed))
	copy(devices, seed)

	return &Catalog{
		devices:    devices,
		maxDevices: opts.MaxDevices,
		delay:      opts.RescanDelay,
		sched:      opts.Scheduler,
		prober:     opts.Prober,
		done:       make(chan struct{}),
	}
}

// SetActivityProbe wires the provisioning run state into rescan gating.
func (c *Catalog) SetActivityProbe(p ActivityProbe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = p
}

// Subscribe registers fn to receive a snapshot whenever the catalog or its
// scanning flag changes. fn runs outside the catalog lock.
func (c *Catalog) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// List returns the current devices in order.
func (c *Catalog) List() []Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyDevices()
}

// Len returns the number of devices.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.devices)
}

// Snapshot returns the devices and the scanning flag together.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Devices: c.copyDevices(), Scanning: c.scanning}
}

// Scanning reports whether a rescan is in flight.
func (c *Catalog) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// Lookup returns the device with the given id.
func (c *Catalog) Lookup(id string) (Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q", ErrUnknownDevice, id)
}

// StartRescan begins a simulated scan and returns immediately. It reports
// false, and does nothing, when a provisioning run is active or another scan
// is in flight. Otherwise done (if non-nil) is called once the scan completes.
func (c *Catalog) StartRescan(done func(ScanResult)) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if c.scanning {
		c.mu.Unlock()
		logging.Debug("Rescan ignored: scan already in flight")
		return false
	}
	if c.activity != nil && c.activity.Active() {
		c.mu.Unlock()
		logging.Debug("Rescan ignored: provisioning run active")
		return false
	}
	c.scanning = true
	snap := Snapshot{Devices: c.copyDevices(), Scanning: true}
	listeners := c.listeners
	c.mu.Unlock()

	logging.Debug("Rescan started", zap.Duration("delay", c.delay))
	notify(listeners, snap)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.task = c.sched.After(c.delay, func() {
		result, ok := c.finishScan()
		if ok && done != nil {
			done(result)
		}
	})
	return true
}

// Rescan runs a simulated scan and waits for it to finish. A busy catalog
// returns a result with Skipped set. If ctx ends first, Rescan returns
// ctx.Err(); the scan itself still completes in the background. After
// Close it returns ErrClosed.
func (c *Catalog) Rescan(ctx context.Context) (ScanResult, error) {
	ch := make(chan ScanResult, 1)
	if !c.StartRescan(func(r ScanResult) { ch <- r }) {
		if c.isClosed() {
			return ScanResult{}, ErrClosed
		}
		return ScanResult{Skipped: true, Devices: c.List()}, nil
	}

	select {
	case r := <-ch:
		return r, nil
	case <-c.done:
		return ScanResult{}, ErrClosed
	case <-ctx.Done():
		return ScanResult{}, ctx.Err()
	}
}

// Close cancels a pending scan and drops the subscribers. The device list
// is kept and Lookup keeps working.
func (c *Catalog) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
	c.scanning = false
	c.listeners = nil
	close(c.done)
}

func (c *Catalog) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// finishScan reports false when the catalog was closed before the scan
// completed.
func (c *Catalog) finishScan() (ScanResult, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ScanResult{}, false
	}
	c.task = nil
	var added *Device
	switch {
	case c.activity != nil && c.activity.Active():
		// a run started while scanning; the catalog stays frozen
	case len(c.devices) < c.maxDevices:
		if d, ok := c.prober.Probe(c.copyDevices()); ok {
			c.devices = append(c.devices, d)
			added = &d
		}
	}
	c.scanning = false
	devices := c.copyDevices()
	listeners := c.listeners
	c.mu.Unlock()

	if added != nil {
		logging.Info("Device discovered",
			zap.String("device_id", added.ID),
			zap.String("name", added.DisplayName),
		)
	} else {
		logging.Debug("Rescan found nothing new", zap.Int("devices", len(devices)))
	}

	notify(listeners, Snapshot{Devices: devices, Scanning: false})
	return ScanResult{Added: added, Devices: devices}, true
}

func (c *Catalog) copyDevices() []Device {
	out := make([]Device, len(c.devices))
	copy(out, c.devices)
	return out
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func containsID(devices []Device, id string) bool {
	for _, d := range devices {
		if d.ID == id {
			return true
		}
	}
	return false
}
