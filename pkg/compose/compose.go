// Package compose merges field contributions into one value per register
// by bitwise OR.
package compose

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
)

// ErrMissingSelection is returned in strict mode when a visible field has
// no chosen setting.
var ErrMissingSelection = errors.New("compose: field has no selection")

// ErrValueTooWide is returned when a contribution does not fit in a 32-bit
// register.
var ErrValueTooWide = errors.New("compose: value wider than 32 bits")

// Selection is the state of one visible field. Set is false when the user
// has not picked a setting.
type Selection struct {
	Key   regschema.CombinedKey
	Field string
	Mask  string
	Value string
	Set   bool
}

// Contribution is one fixed value added to a register.
type Contribution struct {
	Mask  string
	Value string
}

// HiddenSource yields the fixed contributions of hidden fields in a stable
// key order.
type HiddenSource interface {
	Keys() []regschema.CombinedKey
	Values(key regschema.CombinedKey) []Contribution
}

// Entry is one composed register.
type Entry struct {
	Key   regschema.CombinedKey
	Value uint32
}

// Register returns the register key half of the combined key.
func (e Entry) Register() string {
	reg, _ := e.Key.Split()
	return reg
}

// Address returns the address half of the combined key as written in the
// description.
func (e Entry) Address() string {
	_, addr := e.Key.Split()
	return addr
}

// Result holds the composed values in first-appearance order.
type Result struct {
	order  []regschema.CombinedKey
	values map[regschema.CombinedKey]uint32
}

// Keys returns the combined keys in output order.
func (r *Result) Keys() []regschema.CombinedKey {
	out := make([]regschema.CombinedKey, len(r.order))
	copy(out, r.order)
	return out
}

// Value reports the composed value of key.
func (r *Result) Value(key regschema.CombinedKey) (uint32, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Entries returns the composed registers in output order.
func (r *Result) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, Entry{Key: k, Value: r.values[k]})
	}
	return out
}

// Len returns the number of composed registers.
func (r *Result) Len() int { return len(r.order) }

func (r *Result) or(key regschema.CombinedKey, v uint32) {
	if _, ok := r.values[key]; !ok {
		r.order = append(r.order, key)
	}
	r.values[key] |= v
}

type options struct {
	strict bool
}

// Option tweaks Compose.
type Option func(*options)

// Strict makes an unselected visible field an error instead of a zero
// contribution.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

// Compose ORs every selected visible value and every hidden value into an
// accumulator per combined key. Masks are carried but not applied. Keys
// appear in the order they are first seen, visible selections first; an
// unselected field does not introduce its key.
func Compose(visible []Selection, hidden HiddenSource, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := &Result{values: make(map[regschema.CombinedKey]uint32)}
	for _, sel := range visible {
		if !sel.Set {
			if o.strict {
				return nil, errors.Wrapf(ErrMissingSelection, "%s (%s)", sel.Field, sel.Key)
			}
			continue
		}
		v, err := word(sel.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s (%s)", sel.Field, sel.Key)
		}
		res.or(sel.Key, v)
	}
	if hidden != nil {
		for _, k := range hidden.Keys() {
			for _, c := range hidden.Values(k) {
				v, err := word(c.Value)
				if err != nil {
					return nil, errors.Wrapf(err, "hidden field of %s", k)
				}
				res.or(k, v)
			}
		}
	}
	return res, nil
}

func word(s string) (uint32, error) {
	v := ParseLiteral(s)
	if v > math.MaxUint32 {
		return 0, errors.Wrapf(ErrValueTooWide, "%s", strings.TrimSpace(s))
	}
	return uint32(v), nil
}

// ParseLiteral reads a register literal: hexadecimal with an optional 0x
// prefix, then decimal, and 0 when neither parses.
func ParseLiteral(s string) uint64 {
	t := strings.TrimSpace(s)
	if v, err := regschema.ParseHex(t); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(t, 10, 64); err == nil {
		return v
	}
	return 0
}
