// Package regform turns a register description into the fields a user
// edits and the fixed contributions of hidden fields.
package regform

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/compose"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
)

// Option is one choice offered for a field.
type Option struct {
	Label string
	Value string
}

// PresentedField is a visible, editable field.
type PresentedField struct {
	RegisterKey  string
	FieldKey     string
	Label        string
	CombinedKey  regschema.CombinedKey
	Mask         string
	Options      []Option
	DefaultIndex int // -1 when no option matches the init value
}

// Ref returns "REG.FIELD".
func (f PresentedField) Ref() string {
	return f.RegisterKey + "." + f.FieldKey
}

// HasDefault reports whether an option is preselected.
func (f PresentedField) HasDefault() bool {
	return f.DefaultIndex >= 0 && f.DefaultIndex < len(f.Options)
}

// HiddenValue is one hidden field's fixed contribution.
type HiddenValue struct {
	Field string
	Mask  string
	Value string
}

// HiddenTable maps combined keys to hidden contributions, keeping the
// order in which keys first appear.
type HiddenTable struct {
	order  []regschema.CombinedKey
	values map[regschema.CombinedKey][]HiddenValue
}

// NewHiddenTable returns an empty table.
func NewHiddenTable() *HiddenTable {
	return &HiddenTable{values: make(map[regschema.CombinedKey][]HiddenValue)}
}

// Add appends a contribution under key.
func (h *HiddenTable) Add(key regschema.CombinedKey, v HiddenValue) {
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.values[key] = append(h.values[key], v)
}

// Keys returns the combined keys in first-appearance order.
func (h *HiddenTable) Keys() []regschema.CombinedKey {
	if h == nil {
		return nil
	}
	out := make([]regschema.CombinedKey, len(h.order))
	copy(out, h.order)
	return out
}

// Get returns the contributions recorded for key.
func (h *HiddenTable) Get(key regschema.CombinedKey) []HiddenValue {
	if h == nil {
		return nil
	}
	return h.values[key]
}

// Values implements compose.HiddenSource.
func (h *HiddenTable) Values(key regschema.CombinedKey) []compose.Contribution {
	vs := h.Get(key)
	out := make([]compose.Contribution, 0, len(vs))
	for _, v := range vs {
		out = append(out, compose.Contribution{Mask: v.Mask, Value: v.Value})
	}
	return out
}

// Len returns the number of keys.
func (h *HiddenTable) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Present splits the schema into visible fields, in document order, and
// the hidden contribution table.
func Present(schema *regschema.Schema) ([]PresentedField, *HiddenTable) {
	hidden := NewHiddenTable()
	var visible []PresentedField
	if schema == nil {
		return visible, hidden
	}
	for _, reg := range schema.Registers {
		ck := reg.CombinedKey()
		for _, f := range reg.Fields {
			if f.Hidden {
				hidden.Add(ck, HiddenValue{Field: f.Key, Mask: f.Mask, Value: f.Init})
				continue
			}
			pf := PresentedField{
				RegisterKey:  reg.Key,
				FieldKey:     f.Key,
				Label:        f.Label,
				CombinedKey:  ck,
				Mask:         f.Mask,
				DefaultIndex: -1,
			}
			for i, s := range f.Settings {
				pf.Options = append(pf.Options, Option{Label: s.Label, Value: s.Value})
				if pf.DefaultIndex < 0 && strings.EqualFold(s.Value, f.Init) {
					pf.DefaultIndex = i
				}
			}
			visible = append(visible, pf)
		}
	}
	return visible, hidden
}
