package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const sampleCatalog = `
// families first or last, order does not matter
mcu STM32F407VG {
    family = STM32F4;
    system = "stm32f4xx";
}

family STM32F4 {
    vendor  = "STMicroelectronics";
    target  = "thumbv7em-none-eabihf";
    openocd = "stm32f4x.cfg";
}

# explicit target overrides the family
mcu STM32F401CC {
    family = STM32F4;
    system = "stm32f401";
    target = "thumbv7em-none-eabi";
}
`

func loadSample(t *testing.T, text string) (*MemoryCatalog, error) {
	t.Helper()
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("parser init failed: %v", err)
	}
	file, err := parser.ParseString("sample.cat", text)
	if err != nil {
		return nil, err
	}
	c := NewMemoryCatalog()
	return c, c.Load(file)
}

func TestLoadAndLookup(t *testing.T) {
	c, err := loadSample(t, sampleCatalog)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	chip, err := c.Lookup("STM32F407VG")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if chip.Vendor != "STMicroelectronics" {
		t.Errorf("Vendor = %q", chip.Vendor)
	}
	if chip.Target != "thumbv7em-none-eabihf" {
		t.Errorf("Target = %q", chip.Target)
	}
	if chip.Family != "STM32F4" || chip.SystemProfile != "stm32f4xx" {
		t.Errorf("Family/System = %q/%q", chip.Family, chip.SystemProfile)
	}
	if chip.OpenOCDTarget != "stm32f4x.cfg" {
		t.Errorf("OpenOCDTarget = %q", chip.OpenOCDTarget)
	}

	override, err := c.Lookup("STM32F401CC")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if override.Target != "thumbv7em-none-eabi" {
		t.Errorf("override Target = %q", override.Target)
	}

	chips := c.Chips()
	if len(chips) != 2 || chips[0].Name != "STM32F407VG" || chips[1].Name != "STM32F401CC" {
		t.Fatalf("Chips() order = %+v", chips)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	c, err := loadSample(t, sampleCatalog)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	chip, err := c.Lookup("stm32f407vg")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if chip.Name != "STM32F407VG" {
		t.Fatalf("expected canonical name, got %q", chip.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	c, err := loadSample(t, sampleCatalog)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, err = c.Lookup("ATSAMD21")
	if !errors.Is(err, ErrChipNotFound) {
		t.Fatalf("expected ErrChipNotFound, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMsg string
	}{
		{
			name:    "unknown family",
			text:    `mcu X { family = NOPE; system = "s"; }`,
			wantMsg: "unknown family",
		},
		{
			name:    "missing target",
			text:    `family F { vendor = "v"; }`,
			wantMsg: `missing "target"`,
		},
		{
			name:    "missing system",
			text:    `family F { vendor = "v"; target = "t"; } mcu X { family = F; }`,
			wantMsg: `missing "system"`,
		},
		{
			name:    "unknown property",
			text:    `family F { vendor = "v"; target = "t"; flash = "1M"; }`,
			wantMsg: `unknown family property "flash"`,
		},
		{
			name:    "duplicate chip",
			text:    `family F { vendor = "v"; target = "t"; } mcu X { family = F; system = "s"; } mcu X { family = F; system = "s"; }`,
			wantMsg: "duplicate chip",
		},
		{
			name:    "syntax",
			text:    `family F { vendor "v"; }`,
			wantMsg: "parse error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSample(t, tt.text)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if len(c.Chips()) == 0 {
		t.Fatal("default catalog is empty")
	}
	chip, err := c.Lookup("STM32F103C8")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if chip.Target != "thumbv7m-none-eabi" {
		t.Errorf("Target = %q", chip.Target)
	}
	if _, ok := c.Family("STM32F4"); !ok {
		t.Error("STM32F4 family missing")
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "vendor")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "st.cat"), []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a catalog"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := c.Lookup("STM32F401CC"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if _, err := Open(filepath.Join(dir, "missing.cat")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
