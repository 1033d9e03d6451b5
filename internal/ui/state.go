package ui

import (
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/probe"
)

type appView int

const (
	viewChips appView = iota
	viewRegisters
	viewProbes
)

// StateSnapshot captures a copy of the state data for rendering without
// requiring the UI to hold locks while laying out widgets.
type StateSnapshot struct {
	Busy bool

	LastError error
	Status    string

	Chips        []catalog.Chip
	SelectedChip string

	Probes []probe.Info

	SelectedView appView
	AppVersion   string
	LastOutput   string

	Logs []string

	LastUpdated time.Time
}

// AppState tracks the mutable state shared between the Gio event loop and
// the background goroutines that save or scan for probes.
type AppState struct {
	mu sync.RWMutex

	busy bool

	lastError error
	status    string

	chips        []catalog.Chip
	selectedChip string

	probes []probe.Info

	selectedView appView
	appVersion   string
	lastOutput   string

	logs     []string
	logLimit int

	lastUpdated time.Time
}

// NewState returns a baseline AppState with safe defaults.
func NewState() *AppState {
	return &AppState{
		logLimit:     200,
		status:       "Idle",
		selectedView: viewChips,
		appVersion:   "dev",
		lastUpdated:  time.Now(),
	}
}

// Snapshot returns a copy of the mutable state for rendering.
func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chips := make([]catalog.Chip, len(s.chips))
	copy(chips, s.chips)

	var probes []probe.Info
	if len(s.probes) > 0 {
		probes = make([]probe.Info, len(s.probes))
		copy(probes, s.probes)
	}

	logCopy := make([]string, len(s.logs))
	copy(logCopy, s.logs)

	return StateSnapshot{
		Busy:         s.busy,
		LastError:    s.lastError,
		Status:       s.status,
		Chips:        chips,
		SelectedChip: s.selectedChip,
		Probes:       probes,
		SelectedView: s.selectedView,
		AppVersion:   s.appVersion,
		LastOutput:   s.lastOutput,
		Logs:         logCopy,
		LastUpdated:  s.lastUpdated,
	}
}

// SetChips replaces the chip list shown on the selection page.
func (s *AppState) SetChips(chips []catalog.Chip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chips = make([]catalog.Chip, len(chips))
	copy(s.chips, chips)
	s.lastUpdated = time.Now()
}

// SetSelectedChip records the chip being configured; empty means none.
func (s *AppState) SetSelectedChip(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedChip = name
	s.lastUpdated = time.Now()
}

// SelectedChip returns the chip being configured.
func (s *AppState) SelectedChip() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedChip
}

// TryBusy sets the busy flag if it was clear and reports whether it did.
// Saves and probe scans use it so a second request is dropped while one is
// in flight.
func (s *AppState) TryBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	s.lastUpdated = time.Now()
	return true
}

// SetBusy toggles the busy flag and updates the timestamp.
func (s *AppState) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = busy
	s.lastUpdated = time.Now()
}

// Busy returns the current busy flag.
func (s *AppState) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// SetStatus updates the user-facing status message.
func (s *AppState) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastUpdated = time.Now()
}

// SetError stores the latest error surfaced to the UI.
func (s *AppState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastUpdated = time.Now()
}

// SetLastOutput records the directory of the last successful save.
func (s *AppState) SetLastOutput(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutput = dir
	s.lastUpdated = time.Now()
}

// AppendLog appends a log message, trimming the oldest entries past the limit.
func (s *AppState) AppendLog(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, msg)
	if s.logLimit > 0 && len(s.logs) > s.logLimit {
		offset := len(s.logs) - s.logLimit
		s.logs = append([]string(nil), s.logs[offset:]...)
	}
	s.lastUpdated = time.Now()
}

// SetProbes records the detected debug probes.
func (s *AppState) SetProbes(infos []probe.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes = make([]probe.Info, len(infos))
	copy(s.probes, infos)
	s.lastUpdated = time.Now()
}

// SetAppVersion records the running application version string.
func (s *AppState) SetAppVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version == "" {
		version = "dev"
	}
	s.appVersion = version
	s.lastUpdated = time.Now()
}

// SetView updates the active workspace selection.
func (s *AppState) SetView(view appView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedView == view {
		return
	}
	s.selectedView = view
	s.lastUpdated = time.Now()
}

// SelectedView reports the current workspace selection.
func (s *AppState) SelectedView() appView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedView
}
