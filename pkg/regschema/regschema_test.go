package regschema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

const rccJSON = `{
	"clock": "8",
	"config_registers": [
		{
			"key": "CR1",
			"address": "40021000",
			"fields": [
				{"key": "EN", "mask": "0x1", "hidden": true, "init": "0x1"},
				{"key": "SRC", "label": "Clock source", "mask": "0x2", "init": "0x2",
				 "settings": [{"label": "HSI", "value": "0x0"}, {"label": "HSE", "value": "0x2"}]},
				{"key": "RSV", "mask": "0x80", "hidden": true}
			]
		},
		{
			"key": "CFGR",
			"address": "0x40021004",
			"fields": [
				{"key": "PLLMUL", "mask": "0x3C0000", "init": 16, "settings": []}
			]
		}
	]
}`

const rccYAML = `
clock: 8
config_registers:
  - key: CR1
    address: "40021000"
    fields:
      - key: EN
        mask: 0x1
        hidden: true
        init: 0x10
      - key: SRC
        mask: 0x2
        settings:
          - {label: HSI, value: 0x0}
          - {label: HSE, value: 0x2}
`

func TestParseJSON(t *testing.T) {
	s, err := Parse("STM32F103C8.json", []byte(rccJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.Clock != "8" {
		t.Errorf("Clock = %q", s.Clock)
	}
	if len(s.Registers) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(s.Registers))
	}
	cr1 := s.Registers[0]
	if cr1.CombinedKey() != "CR1|40021000" {
		t.Errorf("CombinedKey = %q", cr1.CombinedKey())
	}
	if len(cr1.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(cr1.Fields))
	}

	en := cr1.Fields[0]
	if !en.Hidden || en.Init != "0x1" || en.Label != "EN" {
		t.Errorf("EN = %+v", en)
	}
	src := cr1.Fields[1]
	if src.Hidden || src.Label != "Clock source" || len(src.Settings) != 2 {
		t.Errorf("SRC = %+v", src)
	}
	if src.Settings[1] != (Setting{Label: "HSE", Value: "0x2"}) {
		t.Errorf("SRC.Settings[1] = %+v", src.Settings[1])
	}
	if rsv := cr1.Fields[2]; rsv.Init != "0x0" {
		t.Errorf("hidden field without init should default to 0x0, got %q", rsv.Init)
	}

	pll := s.Registers[1].Fields[0]
	if pll.Init != "0x10" {
		t.Errorf("numeric init 16 should read as decimal, got %q", pll.Init)
	}
	if pll.Settings == nil || len(pll.Settings) != 0 {
		t.Errorf("empty settings should be non-nil and empty, got %#v", pll.Settings)
	}
}

func TestParseYAMLKeepsLiteralText(t *testing.T) {
	s, err := Parse("chip.yaml", []byte(rccYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	en := s.Registers[0].Fields[0]
	if en.Init != "0x10" {
		t.Fatalf("YAML hex scalar should stay as written, got %q", en.Init)
	}
	src := s.Registers[0].Fields[1]
	if src.Init != "" {
		t.Errorf("visible field without init should be empty, got %q", src.Init)
	}
	if src.Settings[1].Value != "0x2" {
		t.Errorf("setting value = %q", src.Settings[1].Value)
	}
}

func TestParseBareNumbersAreDecimal(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"json", `{"clock": 8, "config_registers": [{"key": "A", "address": 4096, "fields": [
			{"key": "H", "mask": 255, "hidden": true, "init": 16},
			{"key": "V", "mask": "0xFF", "settings": [{"label": "two", "value": 2}]}]}]}`, FormatJSON},
		{"yaml", "clock: 8\nconfig_registers:\n  - key: A\n    address: 4096\n    fields:\n" +
			"      - {key: H, mask: 255, hidden: true, init: 16}\n" +
			"      - {key: V, mask: \"0xFF\", settings: [{label: two, value: 2}]}\n", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("num", []byte(tt.doc), tt.format)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if s.Clock != "8" {
				t.Errorf("Clock = %q, want 8", s.Clock)
			}
			reg := s.Registers[0]
			if reg.Address != "0x1000" {
				t.Errorf("Address = %q, want 0x1000", reg.Address)
			}
			h := reg.Fields[0]
			if h.Mask != "0xFF" || h.Init != "0x10" {
				t.Errorf("H mask = %q init = %q", h.Mask, h.Init)
			}
			if v := reg.Fields[1].Settings[0].Value; v != "0x2" {
				t.Errorf("setting value = %q, want 0x2", v)
			}
		})
	}
}

func TestParseMissingRegistersIsEmpty(t *testing.T) {
	s, err := Parse("empty.json", []byte(`{"clock": "16"}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(s.Registers) != 0 {
		t.Fatalf("expected no registers, got %d", len(s.Registers))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"missing clock", `{"config_registers": []}`, "clock"},
		{"registers not a list", `{"clock": "8", "config_registers": {}}`, "config_registers"},
		{"missing address", `{"clock": "8", "config_registers": [{"key": "A", "fields": []}]}`, "config_registers[0].address"},
		{"missing fields", `{"clock": "8", "config_registers": [{"key": "A", "address": "0"}]}`, "config_registers[0].fields"},
		{"missing mask", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F"}]}]}`, "config_registers[0].fields[0].mask"},
		{"bad address", `{"clock": "8", "config_registers": [{"key": "A", "address": "zz", "fields": []}]}`, "config_registers[0].address"},
		{"bad hidden", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F", "mask": "1", "hidden": "yes"}]}]}`, "config_registers[0].fields[0].hidden"},
		{"setting without value", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F", "mask": "1", "settings": [{"label": "x"}]}]}]}`, "config_registers[0].fields[0].settings[0].value"},
		{"duplicate register", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": []}, {"key": "A", "address": "0", "fields": []}]}`, "config_registers[1]"},
		{"address wider than 32 bits", `{"clock": "8", "config_registers": [{"key": "A", "address": "140021000", "fields": []}]}`, "config_registers[0].address"},
		{"mask wider than 32 bits", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F", "mask": "0x100000000"}]}]}`, "config_registers[0].fields[0].mask"},
		{"negative init", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F", "mask": "1", "hidden": true, "init": -1}]}]}`, "config_registers[0].fields[0].init"},
		{"fractional value", `{"clock": "8", "config_registers": [{"key": "A", "address": "0", "fields": [{"key": "F", "mask": "1", "settings": [{"label": "x", "value": 1.5}]}]}]}`, "config_registers[0].fields[0].settings[0].value"},
		{"not an object", `[1, 2]`, ""},
		{"syntax", `{"clock": `, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.json", []byte(tt.doc), FormatJSON)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSchemaParse) {
				t.Fatalf("expected ErrSchemaParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Path != tt.wantPath {
				t.Fatalf("Path = %q, want %q (%v)", pe.Path, tt.wantPath, err)
			}
		})
	}
}

func TestParseYAMLErrorHasLine(t *testing.T) {
	doc := "clock: 8\nconfig_registers:\n  - key: A\n    address: \"0\"\n    fields:\n      - key: F\n"
	_, err := Parse("chip.yaml", []byte(doc), FormatYAML)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Path != "config_registers[0].fields[0].mask" {
		t.Fatalf("Path = %q", pe.Path)
	}
	if pe.Line != 6 {
		t.Errorf("Line = %d, want 6", pe.Line)
	}
	if !strings.Contains(err.Error(), "chip.yaml") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestStoreLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "STM32F103C8.json"), []byte(rccJSON), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "STM32F407VG.yml"), []byte(rccYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	store := NewStore(dir)

	s, err := store.Load("STM32F103C8")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Chip != "STM32F103C8" {
		t.Errorf("Chip = %q", s.Chip)
	}

	if _, err := store.Load("STM32F407VG"); err != nil {
		t.Fatalf("Load yml failed: %v", err)
	}

	_, err = store.Load("STM32L476RG")
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}

	chips, err := store.Available()
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}
	if strings.Join(chips, ",") != "STM32F103C8,STM32F407VG" {
		t.Fatalf("Available = %v", chips)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"40021000", 0x40021000, true},
		{"0x1F", 0x1f, true},
		{"0XfF", 0xff, true},
		{" 10 ", 0x10, true},
		{"0x", 0, false},
		{"0x0X5", 0, false},
		{"0X0x5", 0, false},
		{"g1", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseHex(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}
