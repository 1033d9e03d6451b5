package setup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/compose"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/toolchain"
)

const schemaJSON = `{
	"clock": "8",
	"config_registers": [
		{"key": "CR1", "address": "40021000", "fields": [
			{"key": "EN", "mask": "0x1", "hidden": true, "init": "0x1"},
			{"key": "SRC", "mask": "0x2", "init": "0x2", "settings": [
				{"label": "HSI", "value": "0x0"},
				{"label": "HSE", "value": "0x2"}
			]},
			{"key": "PLL", "mask": "0x4", "settings": [
				{"label": "off", "value": "0x0"},
				{"label": "on", "value": "0x4"}
			]}
		]}
	]
}`

type recordingRegistrar struct {
	targets []string
	err     error
}

func (r *recordingRegistrar) Register(_ context.Context, target string) error {
	r.targets = append(r.targets, target)
	return r.err
}

type fixture struct {
	cat     *catalog.MemoryCatalog
	store   *regschema.Store
	sources string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	if err := cat.AddFamily(catalog.Family{Name: "STM32F1", Vendor: "ST", Target: "thumbv7m-none-eabi"}); err != nil {
		t.Fatalf("AddFamily failed: %v", err)
	}
	if err := cat.AddChip(catalog.Chip{Name: "STM32F103C8", Family: "STM32F1", SystemProfile: "stm32f1xx"}); err != nil {
		t.Fatalf("AddChip failed: %v", err)
	}

	defs := t.TempDir()
	if err := os.WriteFile(filepath.Join(defs, "STM32F103C8.json"), []byte(schemaJSON), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src := t.TempDir()
	for _, name := range []string{"memory/STM32F103C8.x", "startup/STM32F103C8.s", "mcu/STM32F103C8.rs", "reset.rs", "system/stm32f1xx.rs", "config.toml.in"} {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, []byte("target = \"@TARGET@\"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return &fixture{cat: cat, store: regschema.NewStore(defs), sources: src}
}

func (f *fixture) open(t *testing.T, reg toolchain.Registrar, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{
		WithGenerator(codegen.New(codegen.DefaultLayout(f.sources), codegen.Options{})),
		WithRegistrar(reg),
	}, opts...)
	s, err := Open(f.cat, f.store, "STM32F103C8", opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	reg := &recordingRegistrar{}
	s := f.open(t, reg)
	if s.DefaultClock() != "8" {
		t.Fatalf("DefaultClock = %q", s.DefaultClock())
	}

	out := filepath.Join(t.TempDir(), ".setup")
	rep, err := s.Save(context.Background(), " 8 ", out)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rep.Warning != nil || rep.ClockMHz != 8 {
		t.Fatalf("Report = %+v", rep)
	}
	if v, _ := rep.Composed.Value("CR1|40021000"); v != 0x3 {
		t.Errorf("CR1 = %#x, want 0x3", v)
	}
	if len(reg.targets) != 1 || reg.targets[0] != "thumbv7m-none-eabi" {
		t.Errorf("registered %v", reg.targets)
	}

	header, err := os.ReadFile(filepath.Join(out, codegen.CoreHeaderFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for _, line := range []string{
		"pub const ADDRESS_CR1: u32 = 0x40021000;",
		"pub const VALUE_CR1: u32 = 0x00000003;",
		"pub const FOSC_KHZ_VALUE: u32 = 8000;",
	} {
		if !strings.Contains(string(header), line) {
			t.Errorf("core header lacks %q:\n%s", line, header)
		}
	}
}

func TestSaveInvalidClockWritesNothing(t *testing.T) {
	f := newFixture(t)
	reg := &recordingRegistrar{}
	s := f.open(t, reg)
	out := filepath.Join(t.TempDir(), "out")

	for _, clock := range []string{"", "8.5", "eight", "0", "-4", "4294968", "5000000", "9300000000000000", "99999999999999999999"} {
		_, err := s.Save(context.Background(), clock, out)
		if !errors.Is(err, ErrInvalidClockInput) {
			t.Fatalf("clock %q: expected ErrInvalidClockInput, got %v", clock, err)
		}
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written despite invalid clock: %v", err)
	}
	if len(reg.targets) != 0 {
		t.Fatalf("registration ran: %v", reg.targets)
	}
}

func TestSaveRegistrationWarning(t *testing.T) {
	f := newFixture(t)
	reg := &recordingRegistrar{err: &toolchain.RegistrationError{Target: "thumbv7m-none-eabi", Cmd: "rustup", Err: errors.New("exit status 1")}}
	s := f.open(t, reg)

	rep, err := s.Save(context.Background(), "72", t.TempDir())
	if err != nil {
		t.Fatalf("Save should succeed with a warning, got %v", err)
	}
	if !errors.Is(rep.Warning, toolchain.ErrRegistrationFailed) {
		t.Fatalf("Warning = %v", rep.Warning)
	}
}

func TestSaveStrict(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, &recordingRegistrar{}, WithStrict(true))
	_, err := s.Save(context.Background(), "8", t.TempDir())
	if !errors.Is(err, compose.ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}

	if err := s.Form.Set("CR1.PLL", "on"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	rep, err := s.Save(context.Background(), "8", t.TempDir())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if v, _ := rep.Composed.Value("CR1|40021000"); v != 0x7 {
		t.Fatalf("CR1 = %#x, want 0x7", v)
	}
}

func TestOpenErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := Open(f.cat, f.store, "STM32H743ZI"); !errors.Is(err, catalog.ErrChipNotFound) {
		t.Errorf("expected ErrChipNotFound, got %v", err)
	}

	if err := f.cat.AddChip(catalog.Chip{Name: "STM32F100RB", Family: "STM32F1", SystemProfile: "stm32f1xx"}); err != nil {
		t.Fatalf("AddChip failed: %v", err)
	}
	if _, err := Open(f.cat, f.store, "STM32F100RB"); !errors.Is(err, regschema.ErrSchemaNotFound) {
		t.Errorf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, &recordingRegistrar{})
	arts, err := s.Render("16")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(arts) != 7 || arts[0].Name != codegen.CoreHeaderFile || arts[6].Name != codegen.BuildFile {
		t.Fatalf("unexpected artifacts: %d", len(arts))
	}
	if !strings.Contains(string(arts[6].Data), "thumbv7m-none-eabi") {
		t.Errorf("build config not rewritten: %q", arts[6].Data)
	}
}

func TestParseClockRange(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"72", 72, true},
		{" 8 ", 8, true},
		{"1", 1, true},
		{"4294967", 4294967, true},
		{"4294968", 0, false},
		{"0", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseClock(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	arts, err := newFixture(t).open(t, &recordingRegistrar{}).Render("4294967")
	if err != nil {
		t.Fatalf("Render at the largest clock failed: %v", err)
	}
	if !strings.Contains(string(arts[0].Data), "FOSC_KHZ_VALUE: u32 = 4294967000;") {
		t.Errorf("core header:\n%s", arts[0].Data)
	}
}
