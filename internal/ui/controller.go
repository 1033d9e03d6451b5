package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/setup"
)

// ErrBusy is returned when a save or scan is requested while another one is
// still running.
var ErrBusy = errors.New("ui: operation in progress")

// ErrNoChip is returned by Save before a chip has been selected.
var ErrNoChip = errors.New("ui: no chip selected")

// Env holds what the wizard needs from the project.
type Env struct {
	Catalog   catalog.Catalog
	Schemas   setup.SchemaSource
	Options   []setup.Option
	OutputDir string
	// Discover lists debug probes; nil uses probe.Discover.
	Discover func(ctx context.Context) ([]probe.Info, error)
}

// Controller runs the wizard steps against the shared AppState. The Gio
// layer calls it from the event loop. StartSave claims the busy flag
// before it returns so the form and session stay untouched until the
// background save is done.
type Controller struct {
	env   Env
	state *AppState

	mu      sync.Mutex // guards session
	session *setup.Session
}

// NewController fills the state with the catalog chips.
func NewController(env Env, state *AppState) *Controller {
	if state == nil {
		state = NewState()
	}
	if env.Discover == nil {
		env.Discover = probe.Discover
	}
	c := &Controller{env: env, state: state}
	if env.Catalog != nil {
		state.SetChips(env.Catalog.Chips())
	}
	return c
}

// State returns the shared state.
func (c *Controller) State() *AppState { return c.state }

// Session returns the open session, nil on the chip selection page.
func (c *Controller) Session() *setup.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SelectChip opens chip and switches to the register page. On failure the
// selection page stays active.
func (c *Controller) SelectChip(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return ErrBusy
	}
	s, err := setup.Open(c.env.Catalog, c.env.Schemas, name, c.env.Options...)
	if err != nil {
		c.fail(fmt.Sprintf("Cannot configure %s", name), err)
		return err
	}
	c.session = s
	c.state.SetSelectedChip(s.Chip.Name)
	c.state.SetError(nil)
	c.state.SetView(viewRegisters)
	c.state.SetStatus(fmt.Sprintf("Configuring %s", s.Chip.Name))
	c.logf("Loaded %s: %d field(s), target %s", s.Chip.Name, len(s.Form.Fields()), s.Chip.Target)
	return nil
}

// Back drops the register form and returns to chip selection.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return
	}
	c.session = nil
	c.state.SetSelectedChip("")
	c.state.SetView(viewChips)
	c.state.SetStatus("Select a microcontroller")
}

// Save runs one save with the given clock text. A second call while one
// is in flight returns ErrBusy without doing anything.
func (c *Controller) Save(ctx context.Context, clockText string) (*setup.Report, error) {
	s, err := c.claim()
	if err != nil {
		return nil, err
	}
	return c.save(ctx, s, clockText)
}

// StartSave is Save on a background goroutine. The busy flag is taken
// before StartSave returns; done, if not nil, runs once the flag is
// released again.
func (c *Controller) StartSave(ctx context.Context, clockText string, done func(*setup.Report, error)) error {
	s, err := c.claim()
	if err != nil {
		return err
	}
	go func() {
		rep, err := c.save(ctx, s, clockText)
		if done != nil {
			done(rep, err)
		}
	}()
	return nil
}

// claim takes the busy flag and returns the session it was taken for.
func (c *Controller) claim() (*setup.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoChip
	}
	if !c.state.TryBusy() {
		return nil, ErrBusy
	}
	return c.session, nil
}

// save runs with the busy flag held and releases it.
func (c *Controller) save(ctx context.Context, s *setup.Session, clockText string) (*setup.Report, error) {
	defer c.state.SetBusy(false)

	c.state.SetStatus(fmt.Sprintf("Saving %s...", s.Chip.Name))
	rep, err := s.Save(ctx, clockText, c.env.OutputDir)
	if err != nil {
		c.fail("Save failed", err)
		return nil, err
	}
	c.state.SetError(nil)
	c.state.SetLastOutput(rep.OutputRoot)
	c.logf("Wrote %d register(s) for %s to %s", rep.Composed.Len(), rep.Chip.Name, rep.OutputRoot)
	if rep.Warning != nil {
		c.logf("Warning: %v", rep.Warning)
		c.state.SetStatus("Saved; target registration failed")
	} else {
		c.state.SetStatus("MCU configuration saved")
	}
	return rep, nil
}

// ScanProbes enumerates debug probes.
func (c *Controller) ScanProbes(ctx context.Context) error {
	if !c.state.TryBusy() {
		return ErrBusy
	}
	defer c.state.SetBusy(false)

	c.state.SetStatus("Scanning for debug probes...")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	infos, err := c.env.Discover(ctx)
	if err != nil {
		c.fail("Probe scan failed", err)
		return err
	}
	c.state.SetProbes(infos)
	c.state.SetError(nil)
	if len(infos) == 0 {
		c.state.SetStatus("No debug probes found")
	} else {
		c.state.SetStatus(fmt.Sprintf("Found %d probe(s)", len(infos)))
	}
	c.logf("Probe scan: %d found", len(infos))
	return nil
}

func (c *Controller) fail(status string, err error) {
	c.state.SetError(err)
	c.state.SetStatus(status)
	c.logf("%s: %v", status, err)
	glog.Warningf("ui: %s: %v", status, err)
}

func (c *Controller) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.state.AppendLog(time.Now().Format("15:04:05") + " " + msg)
	glog.V(1).Info(msg)
}
