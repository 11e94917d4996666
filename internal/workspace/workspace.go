// Package workspace binds one catalog, one provisioning simulator and one
// advisor session into an isolated user session. Front ends (the terminal
// UI and the web console) drive a Workspace and hold no simulation logic.
package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/gemini"
	"github.com/muurk/bootmaster/internal/locale"
	"github.com/muurk/bootmaster/internal/logging"
	"github.com/muurk/bootmaster/internal/provisioning"
	"github.com/muurk/bootmaster/internal/schedule"
)

// Options configures a Workspace. Zero values select the defaults.
type Options struct {
	// Config supplies pacing, defaults and the advisor settings (default: config.Default)
	Config *config.Config

	// Generator answers advisor questions (default: a gemini client for Config)
	Generator advisor.Generator

	// Credential returns the advisor API key (default: config.APIKey)
	Credential func() string

	// Scheduler drives ticks and rescans (default: schedule.Real)
	Scheduler schedule.Scheduler

	// Lang overrides the configured language
	Lang locale.Lang
}

// Workspace is one isolated session. No state is shared between workspaces.
type Workspace struct {
	ID        string
	Created   time.Time
	Catalog   *catalog.Catalog
	Simulator *provisioning.Simulator
	Advisor   *advisor.Session

	mu       sync.RWMutex
	lang     locale.Lang
	watchers watchers
}

// State is the combined observable state of a workspace.
type State struct {
	ID           string                `json:"id"`
	Lang         locale.Lang           `json:"lang"`
	Provisioning provisioning.Snapshot `json:"provisioning"`
	Catalog      catalog.Snapshot      `json:"catalog"`
	Transcript   advisor.Transcript    `json:"transcript"`
	Awaiting     bool                  `json:"awaiting"`
	Suggestions  []string              `json:"suggestions"`
}

// NewGenerator returns the production advisor backend for cfg.
func NewGenerator(cfg *config.Config) *gemini.Client {
	client := gemini.NewClientWithURL(cfg.Advisor.Endpoint)
	if cfg.Advisor.Timeout > 0 {
		client.SetTimeout(cfg.Advisor.Timeout)
	}
	return client
}

// New creates a workspace.
func New(opts Options) (*Workspace, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = schedule.Real{}
	}
	if opts.Credential == nil {
		opts.Credential = config.APIKey
	}
	if opts.Generator == nil {
		opts.Generator = NewGenerator(cfg)
	}
	lang := opts.Lang
	if lang == "" {
		lang = cfg.Lang()
	}

	devices, err := cfg.CatalogDevices()
	if err != nil {
		return nil, err
	}
	defaults, err := cfg.ProvisioningDefaults()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	cat := catalog.New(catalog.Options{
		Devices:     devices,
		RescanDelay: cfg.Catalog.RescanDelay,
		MaxDevices:  cfg.Catalog.MaxDevices,
		Scheduler:   opts.Scheduler,
	})
	// A configured default device missing from a custom list falls back to
	// the first entry.
	if _, err := cat.Lookup(defaults.DeviceID); err != nil && len(devices) > 0 {
		defaults.DeviceID = devices[0].ID
	}
	sim := provisioning.NewSimulator(cat, provisioning.Options{
		Name:         id,
		Scheduler:    opts.Scheduler,
		TickInterval: cfg.Provisioning.TickInterval,
		Lang:         lang,
		Defaults:     &defaults,
	})
	cat.SetActivityProbe(sim)

	temperature := cfg.Advisor.Temperature
	session := advisor.NewSession(opts.Generator, advisor.Options{
		ID:              id,
		Credential:      opts.Credential,
		Model:           cfg.Advisor.Model,
		Temperature:     &temperature,
		MaxContextTurns: cfg.Advisor.MaxContextTurns,
		Timeout:         cfg.Advisor.Timeout,
		Lang:            lang,
	})

	logging.Info("Workspace created",
		zap.String("workspace", id),
		zap.String("lang", string(lang)),
		zap.Int("devices", len(devices)),
	)

	ws := &Workspace{
		ID:        id,
		Created:   time.Now(),
		Catalog:   cat,
		Simulator: sim,
		Advisor:   session,
		lang:      lang,
	}
	ws.forward()
	return ws, nil
}

// Lang returns the workspace language.
func (w *Workspace) Lang() locale.Lang {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lang
}

// Messages returns the strings for the workspace language.
func (w *Workspace) Messages() *locale.Messages {
	return locale.For(w.Lang())
}

// SetLanguage switches labels, fallback and suggestions.
func (w *Workspace) SetLanguage(lang locale.Lang) {
	w.mu.Lock()
	w.lang = lang
	w.mu.Unlock()
	w.Simulator.SetLanguage(lang)
	w.Advisor.SetLanguage(lang)

	state := w.State()
	w.watchers.dispatch(Notification{Kind: NotifyLanguage, State: &state})
}

// State returns the combined state of all three components.
func (w *Workspace) State() State {
	return State{
		ID:           w.ID,
		Lang:         w.Lang(),
		Provisioning: w.Simulator.Snapshot(),
		Catalog:      w.Catalog.Snapshot(),
		Transcript:   w.Advisor.Transcript(),
		Awaiting:     w.Advisor.Awaiting(),
		Suggestions:  w.Advisor.Suggestions(),
	}
}

// Close stops every scheduled task and cancels any pending advisor request.
func (w *Workspace) Close() {
	w.Catalog.Close()
	w.Simulator.Close()
	w.Advisor.Close()
	logging.Info("Workspace closed", zap.String("workspace", w.ID))
}
