package regform

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/compose"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
)

var (
	// ErrUnknownField is returned by Set for a reference that matches no
	// visible field.
	ErrUnknownField = errors.New("regform: unknown field")

	// ErrUnknownChoice is returned by Set when the choice matches none of
	// the field's options.
	ErrUnknownChoice = errors.New("regform: unknown choice")
)

// Form holds the user's choices for one chip. It starts with every field at
// its default index. A Form is not safe for concurrent use.
type Form struct {
	fields   []PresentedField
	hidden   *HiddenTable
	selected []int
}

// NewForm presents schema and selects the defaults.
func NewForm(schema *regschema.Schema) *Form {
	fields, hidden := Present(schema)
	f := &Form{fields: fields, hidden: hidden, selected: make([]int, len(fields))}
	f.Reset()
	return f
}

// Reset restores the default selection of every field.
func (f *Form) Reset() {
	for i, pf := range f.fields {
		f.selected[i] = pf.DefaultIndex
	}
}

// Fields returns the visible fields in document order.
func (f *Form) Fields() []PresentedField { return f.fields }

// Hidden returns the hidden contribution table.
func (f *Form) Hidden() *HiddenTable { return f.hidden }

// Selected returns the chosen option index of field i, -1 when none.
func (f *Form) Selected(i int) int {
	if i < 0 || i >= len(f.selected) {
		return -1
	}
	return f.selected[i]
}

// Select picks option opt of field i.
func (f *Form) Select(i, opt int) error {
	if i < 0 || i >= len(f.fields) {
		return errors.Wrapf(ErrUnknownField, "index %d", i)
	}
	if opt < 0 || opt >= len(f.fields[i].Options) {
		return errors.Wrapf(ErrUnknownChoice, "%s: option %d", f.fields[i].Ref(), opt)
	}
	f.selected[i] = opt
	return nil
}

// Clear removes the selection of field i.
func (f *Form) Clear(i int) {
	if i >= 0 && i < len(f.selected) {
		f.selected[i] = -1
	}
}

// Find returns the index of the field named by ref, either "REG.FIELD" or
// the field label, compared case-insensitively.
func (f *Form) Find(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, pf := range f.fields {
		if strings.EqualFold(pf.Ref(), ref) {
			return i, nil
		}
	}
	for i, pf := range f.fields {
		if strings.EqualFold(pf.Label, ref) {
			return i, nil
		}
	}
	return -1, errors.Wrap(ErrUnknownField, ref)
}

// Set selects the option of ref whose label or value equals choice.
// Labels are tried first.
func (f *Form) Set(ref, choice string) error {
	i, err := f.Find(ref)
	if err != nil {
		return err
	}
	choice = strings.TrimSpace(choice)
	opts := f.fields[i].Options
	for j, o := range opts {
		if strings.EqualFold(o.Label, choice) {
			f.selected[i] = j
			return nil
		}
	}
	for j, o := range opts {
		if strings.EqualFold(o.Value, choice) {
			f.selected[i] = j
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownChoice, "%s=%s", f.fields[i].Ref(), choice)
}

// Selections returns the composition input for the current choices.
func (f *Form) Selections() []compose.Selection {
	out := make([]compose.Selection, 0, len(f.fields))
	for i, pf := range f.fields {
		sel := compose.Selection{Key: pf.CombinedKey, Field: pf.Ref(), Mask: pf.Mask}
		if j := f.selected[i]; j >= 0 && j < len(pf.Options) {
			sel.Value = pf.Options[j].Value
			sel.Set = true
		}
		out = append(out, sel)
	}
	return out
}

// Compose runs the composition engine over the current choices.
func (f *Form) Compose(opts ...compose.Option) (*compose.Result, error) {
	return compose.Compose(f.Selections(), f.hidden, opts...)
}
