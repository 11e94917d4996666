package workspace

import (
	"sync"

	"github.com/muurk/bootmaster/internal/advisor"
	"github.com/muurk/bootmaster/internal/catalog"
	"github.com/muurk/bootmaster/internal/provisioning"
)

// NotificationKind names the component a notification comes from.
type NotificationKind string

const (
	NotifyState        NotificationKind = "state"
	NotifyProvisioning NotificationKind = "provisioning"
	NotifyCatalog      NotificationKind = "catalog"
	NotifyAdvisor      NotificationKind = "advisor"
	NotifyLanguage     NotificationKind = "language"
)

// Notification is one change in a workspace. Exactly one payload is set,
// matching Kind; a language change carries the full State.
type Notification struct {
	Kind         NotificationKind    `json:"type"`
	Provisioning *provisioning.Event `json:"provisioning,omitempty"`
	Catalog      *catalog.Snapshot   `json:"catalog,omitempty"`
	Advisor      *advisor.Update     `json:"advisor,omitempty"`
	State        *State              `json:"state,omitempty"`
}

// watchers fans component callbacks out to removable observers.
type watchers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Notification)
}

func (h *watchers) add(fn func(Notification)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[int]func(Notification))
	}
	id := h.next
	h.next++
	h.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.fns, id)
			h.mu.Unlock()
		})
	}
}

func (h *watchers) dispatch(n Notification) {
	h.mu.Lock()
	fns := make([]func(Notification), 0, len(h.fns))
	for _, fn := range h.fns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

func (h *watchers) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}

// Watch registers fn for every change in the workspace and returns a
// function that removes it. fn runs in the goroutine that made the change
// and must not block.
func (w *Workspace) Watch(fn func(Notification)) (cancel func()) {
	return w.watchers.add(fn)
}

// Watchers returns the number of registered observers.
func (w *Workspace) Watchers() int {
	return w.watchers.len()
}

func (w *Workspace) forward() {
	w.Simulator.Subscribe(func(ev provisioning.Event) {
		w.watchers.dispatch(Notification{Kind: NotifyProvisioning, Provisioning: &ev})
	})
	w.Catalog.Subscribe(func(s catalog.Snapshot) {
		w.watchers.dispatch(Notification{Kind: NotifyCatalog, Catalog: &s})
	})
	w.Advisor.Subscribe(func(u advisor.Update) {
		w.watchers.dispatch(Notification{Kind: NotifyAdvisor, Advisor: &u})
	})
}
