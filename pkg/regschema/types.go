// Package regschema loads the per-chip register description: the default
// clock and an ordered list of registers, each an address plus bit-fields
// that are either fixed (hidden) or chosen from enumerated settings.
//
// Documents are JSON or YAML with the layout
//
//	clock: "8"
//	config_registers:
//	  - key: RCC_CR
//	    address: "40023800"
//	    fields:
//	      - key: HSEON
//	        label: HSE oscillator
//	        mask: "0x10000"
//	        init: "0x10000"
//	        settings:
//	          - {label: "Off", value: "0x0"}
//	          - {label: "On",  value: "0x10000"}
//	      - key: RESERVED
//	        mask: "0x80"
//	        hidden: true
//	        init: "0x80"
//
// config_registers may be omitted (no registers). Every register needs key,
// address and fields; every field needs key and mask.
package regschema

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Schema is the parsed description for one chip.
type Schema struct {
	Chip      string
	Clock     string
	Registers []RegisterDef
}

// RegisterDef is one configurable hardware register.
type RegisterDef struct {
	Key     string
	Address string // hex text as written in the document, 0x prefix optional
	Fields  []FieldDef
}

// CombinedKey returns the register's "{key}|{address}" identity.
func (r RegisterDef) CombinedKey() CombinedKey {
	return NewCombinedKey(r.Key, r.Address)
}

// FieldDef is a bit-range within a register.
type FieldDef struct {
	Key      string
	Label    string // defaults to Key
	Mask     string
	Hidden   bool
	Init     string    // "0x0" for hidden fields without init, "" for visible ones
	Settings []Setting // nil when the document declares none
}

// Setting is one enumerated choice of a visible field.
type Setting struct {
	Label string
	Value string
}

// CombinedKey identifies a register across presentation, composition and
// code generation.
type CombinedKey string

// NewCombinedKey joins a register key and address.
func NewCombinedKey(register, address string) CombinedKey {
	return CombinedKey(register + "|" + address)
}

// Split returns the register key and address parts.
func (k CombinedKey) Split() (register, address string) {
	reg, addr, _ := strings.Cut(string(k), "|")
	return reg, addr
}

func (k CombinedKey) String() string { return string(k) }

// ParseHex parses a hexadecimal literal with an optional 0x/0X prefix.
func ParseHex(s string) (uint64, error) {
	t := strings.TrimSpace(s)
	if hasHexPrefix(t) {
		t = t[2:]
	}
	if t == "" {
		return 0, errors.Errorf("empty hex literal %q", s)
	}
	v, err := strconv.ParseUint(t, 16, 64)
	if err != nil {
		return 0, errors.Errorf("invalid hex literal %q", s)
	}
	return v, nil
}

func hasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
