package workspace

import (
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned for an unknown workspace id.
var ErrNotFound = errors.New("workspace not found")

// ErrLimitReached is returned by Create when the manager is full.
var ErrLimitReached = errors.New("too many open workspaces")

// Manager owns the workspaces served to browser clients.
type Manager struct {
	mu      sync.Mutex
	opts    Options
	limit   int
	entries map[string]*Workspace
}

// NewManager creates a manager that builds workspaces from opts.
// limit <= 0 means unlimited.
func NewManager(opts Options, limit int) *Manager {
	return &Manager{
		opts:    opts,
		limit:   limit,
		entries: make(map[string]*Workspace),
	}
}

// Create opens a new workspace.
func (m *Manager) Create() (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit > 0 && len(m.entries) >= m.limit {
		return nil, ErrLimitReached
	}
	ws, err := New(m.opts)
	if err != nil {
		return nil, err
	}
	m.entries[ws.ID] = ws
	return ws, nil
}

// Get returns the workspace with id.
func (m *Manager) Get(id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ws, nil
}

// Delete closes and forgets a workspace.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	ws, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	ws.Close()
	return nil
}

// List returns the open workspaces, oldest first.
func (m *Manager) List() []*Workspace {
	m.mu.Lock()
	out := make([]*Workspace, 0, len(m.entries))
	for _, ws := range m.entries {
		out = append(out, ws)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

// Len returns the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// CloseAll closes every workspace.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, ws := range entries {
		ws.Close()
	}
}
