package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/setup"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/toolchain"
)

const testSchema = `clock: "72"
config_registers:
  - key: RCC_CR
    address: "40021000"
    fields:
      - key: HSEON
        label: HSE oscillator
        mask: "0x10000"
        init: "0x10000"
        settings:
          - label: "Off"
            value: "0x0"
          - label: "On"
            value: "0x10000"
`

type stubRegistrar struct{ err error }

func (r stubRegistrar) Register(context.Context, string) error { return r.err }

// gateRegistrar holds a save inside registration until release is closed.
type gateRegistrar struct {
	entered chan struct{}
	release chan struct{}
}

func (r *gateRegistrar) Register(context.Context, string) error {
	close(r.entered)
	<-r.release
	return nil
}

func newTestEnv(t *testing.T, reg toolchain.Registrar) Env {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	if err := cat.AddFamily(catalog.Family{Name: "STM32F1", Vendor: "ST", Target: "thumbv7m-none-eabi"}); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}
	if err := cat.AddChip(catalog.Chip{Name: "STM32F103C8", Family: "STM32F1", SystemProfile: "stm32f1xx"}); err != nil {
		t.Fatalf("AddChip failed: %v", err)
	}
	// Catalogued but without a register description.
	if err := cat.AddChip(catalog.Chip{Name: "STM32F100RB", Family: "STM32F1", SystemProfile: "stm32f1xx"}); err != nil {
		t.Fatalf("AddChip failed: %v", err)
	}

	defs := t.TempDir()
	if err := os.WriteFile(filepath.Join(defs, "STM32F103C8.yaml"), []byte(testSchema), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	src := t.TempDir()
	for _, name := range []string{"memory/STM32F103C8.x", "startup/STM32F103C8.s", "mcu/STM32F103C8.rs", "reset.rs", "system/stm32f1xx.rs", "config.toml.in"} {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, []byte("// "+name+"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	return Env{
		Catalog: cat,
		Schemas: regschema.NewStore(defs),
		Options: []setup.Option{
			setup.WithGenerator(codegen.New(codegen.DefaultLayout(src), codegen.Options{})),
			setup.WithRegistrar(reg),
		},
		OutputDir: filepath.Join(t.TempDir(), ".setup"),
		Discover: func(context.Context) ([]probe.Info, error) {
			return nil, nil
		},
	}
}

func TestStateTryBusy(t *testing.T) {
	s := NewState()
	if !s.TryBusy() {
		t.Fatal("first TryBusy should succeed")
	}
	if s.TryBusy() {
		t.Fatal("second TryBusy should fail while busy")
	}
	s.SetBusy(false)
	if !s.TryBusy() {
		t.Fatal("TryBusy should succeed after clearing")
	}
}

func TestStateLogLimit(t *testing.T) {
	s := NewState()
	for i := 0; i < 250; i++ {
		s.AppendLog(fmt.Sprintf("line %d", i))
	}
	logs := s.Snapshot().Logs
	if len(logs) != 200 {
		t.Fatalf("got %d log lines, want 200", len(logs))
	}
	if logs[0] != "line 50" || logs[199] != "line 249" {
		t.Errorf("window = %q .. %q", logs[0], logs[199])
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewState()
	s.SetChips([]catalog.Chip{{Name: "A"}, {Name: "B"}})
	snap := s.Snapshot()
	snap.Chips[0].Name = "changed"
	if got := s.Snapshot().Chips[0].Name; got != "A" {
		t.Errorf("state chip = %q, want A", got)
	}
}

func TestControllerSelectChip(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{})
	c := NewController(env, nil)

	if n := len(c.State().Snapshot().Chips); n != 2 {
		t.Fatalf("chips = %d, want 2", n)
	}
	if err := c.SelectChip("stm32f103c8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}
	snap := c.State().Snapshot()
	if snap.SelectedView != viewRegisters || snap.SelectedChip != "STM32F103C8" {
		t.Fatalf("view=%v chip=%q", snap.SelectedView, snap.SelectedChip)
	}
	if c.Session() == nil || c.Session().DefaultClock() != "72" {
		t.Fatal("session not opened")
	}

	c.Back()
	snap = c.State().Snapshot()
	if c.Session() != nil || snap.SelectedView != viewChips || snap.SelectedChip != "" {
		t.Fatalf("Back did not reset: view=%v chip=%q", snap.SelectedView, snap.SelectedChip)
	}
}

func TestControllerSelectChipFailure(t *testing.T) {
	c := NewController(newTestEnv(t, stubRegistrar{}), nil)

	tests := []struct {
		chip string
		want error
	}{
		{"NOPE", catalog.ErrChipNotFound},
		{"STM32F100RB", regschema.ErrSchemaNotFound},
	}
	for _, tt := range tests {
		err := c.SelectChip(tt.chip)
		if !errors.Is(err, tt.want) {
			t.Errorf("SelectChip(%q) = %v, want %v", tt.chip, err, tt.want)
		}
		snap := c.State().Snapshot()
		if snap.SelectedView != viewChips || snap.LastError == nil {
			t.Errorf("SelectChip(%q): view=%v err=%v", tt.chip, snap.SelectedView, snap.LastError)
		}
	}
}

func TestControllerSave(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{})
	c := NewController(env, nil)

	if _, err := c.Save(context.Background(), "72"); err == nil {
		t.Fatal("Save without a chip should fail")
	}
	if err := c.SelectChip("STM32F103C8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}
	rep, err := c.Save(context.Background(), "72")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if v, _ := rep.Composed.Value("RCC_CR|40021000"); v != 0x10000 {
		t.Errorf("RCC_CR = %#x", v)
	}
	snap := c.State().Snapshot()
	if snap.Busy || snap.Status != "MCU configuration saved" || snap.LastOutput != env.OutputDir {
		t.Errorf("snapshot = busy %v, status %q, output %q", snap.Busy, snap.Status, snap.LastOutput)
	}
	if _, err := os.Stat(filepath.Join(env.OutputDir, codegen.CoreHeaderFile)); err != nil {
		t.Errorf("core header missing: %v", err)
	}
}

func TestControllerSaveWarning(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{err: errors.Wrap(toolchain.ErrRegistrationFailed, "rustup missing")})
	c := NewController(env, nil)
	if err := c.SelectChip("STM32F103C8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}
	rep, err := c.Save(context.Background(), "72")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rep.Warning == nil {
		t.Fatal("expected a registration warning")
	}
	if got := c.State().Snapshot().Status; got != "Saved; target registration failed" {
		t.Errorf("status = %q", got)
	}
}

func TestControllerSaveInvalidClock(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{})
	c := NewController(env, nil)
	if err := c.SelectChip("STM32F103C8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}
	if _, err := c.Save(context.Background(), "fast"); !errors.Is(err, setup.ErrInvalidClockInput) {
		t.Fatalf("Save = %v, want ErrInvalidClockInput", err)
	}
	if _, err := os.Stat(env.OutputDir); !os.IsNotExist(err) {
		t.Errorf("output directory created on invalid clock: %v", err)
	}
	if c.State().Busy() {
		t.Error("busy flag left set")
	}
}

func TestControllerBusy(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{})
	c := NewController(env, nil)
	if err := c.SelectChip("STM32F103C8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}

	c.State().SetBusy(true)
	if _, err := c.Save(context.Background(), "72"); !errors.Is(err, ErrBusy) {
		t.Errorf("Save = %v, want ErrBusy", err)
	}
	if err := c.ScanProbes(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("ScanProbes = %v, want ErrBusy", err)
	}
	if err := c.SelectChip("STM32F103C8"); !errors.Is(err, ErrBusy) {
		t.Errorf("SelectChip = %v, want ErrBusy", err)
	}
	c.Back()
	if c.Session() == nil {
		t.Error("Back dropped the session while busy")
	}
	if _, err := os.Stat(env.OutputDir); !os.IsNotExist(err) {
		t.Errorf("output written while busy: %v", err)
	}
}

func TestControllerStartSaveHoldsSession(t *testing.T) {
	reg := &gateRegistrar{entered: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, reg)
	c := NewController(env, nil)
	if err := c.StartSave(context.Background(), "72", nil); !errors.Is(err, ErrNoChip) {
		t.Fatalf("StartSave without a chip = %v, want ErrNoChip", err)
	}
	if err := c.SelectChip("STM32F103C8"); err != nil {
		t.Fatalf("SelectChip failed: %v", err)
	}
	s := c.Session()

	done := make(chan error, 1)
	if err := c.StartSave(context.Background(), "72", func(_ *setup.Report, err error) { done <- err }); err != nil {
		t.Fatalf("StartSave failed: %v", err)
	}
	// The flag is held from the moment StartSave returns.
	if !c.State().Busy() {
		t.Fatal("busy flag not set by StartSave")
	}
	c.Back()
	if c.Session() != s {
		t.Fatal("Back replaced the session during a save")
	}
	if err := c.StartSave(context.Background(), "72", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second StartSave = %v, want ErrBusy", err)
	}
	if _, err := c.Save(context.Background(), "72"); !errors.Is(err, ErrBusy) {
		t.Errorf("Save = %v, want ErrBusy", err)
	}
	if err := c.SelectChip("STM32F103C8"); !errors.Is(err, ErrBusy) {
		t.Errorf("SelectChip = %v, want ErrBusy", err)
	}

	<-reg.entered
	close(reg.release)
	if err := <-done; err != nil {
		t.Fatalf("background save failed: %v", err)
	}
	if c.State().Busy() {
		t.Fatal("busy flag left set")
	}
	if got := c.State().Snapshot().Status; got != "MCU configuration saved" {
		t.Errorf("status = %q", got)
	}
	c.Back()
	if c.Session() != nil {
		t.Error("Back after the save should drop the session")
	}
}

func TestControllerScanProbes(t *testing.T) {
	env := newTestEnv(t, stubRegistrar{})
	env.Discover = func(context.Context) ([]probe.Info, error) {
		info, _ := probe.Classify(0x0483, 0x3748)
		return []probe.Info{info}, nil
	}
	c := NewController(env, nil)
	if err := c.ScanProbes(context.Background()); err != nil {
		t.Fatalf("ScanProbes failed: %v", err)
	}
	snap := c.State().Snapshot()
	if len(snap.Probes) != 1 || snap.Probes[0].Kind != probe.KindSTLink {
		t.Fatalf("probes = %+v", snap.Probes)
	}
	if snap.Status != "Found 1 probe(s)" {
		t.Errorf("status = %q", snap.Status)
	}

	env.Discover = func(context.Context) ([]probe.Info, error) {
		return nil, errors.New("usb: access denied")
	}
	c = NewController(env, nil)
	if err := c.ScanProbes(context.Background()); err == nil {
		t.Fatal("expected scan error")
	}
	if c.State().Snapshot().LastError == nil {
		t.Error("scan error not recorded")
	}
}
