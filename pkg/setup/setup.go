// Package setup ties the catalog, the register description, the field
// form, composition, code generation and target registration into the
// save flow of the wizard.
package setup

import (
	"context"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/compose"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regform"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/toolchain"
)

// ErrInvalidClockInput is returned when the clock text is not a whole
// number of MHz between 1 and codegen.MaxClockMHz. Zero is rejected.
// Nothing is written in that case.
var ErrInvalidClockInput = errors.New("setup: clock must be a positive integer (MHz)")

// SchemaSource loads the register description of a chip.
type SchemaSource interface {
	Load(chip string) (*regschema.Schema, error)
}

// Session is the state of one configured chip. Returning to chip selection
// means dropping the Session and opening a new one.
type Session struct {
	Chip   catalog.Chip
	Schema *regschema.Schema
	Form   *regform.Form

	generator *codegen.Generator
	registrar toolchain.Registrar
	strict    bool
}

// Option customises a Session.
type Option func(*Session)

// WithGenerator sets the artifact generator.
func WithGenerator(g *codegen.Generator) Option {
	return func(s *Session) { s.generator = g }
}

// WithRegistrar sets the toolchain registrar.
func WithRegistrar(r toolchain.Registrar) Option {
	return func(s *Session) { s.registrar = r }
}

// WithStrict makes a field without a selection fail the save.
func WithStrict(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// Open resolves chip in cat and loads its register description.
func Open(cat catalog.Catalog, schemas SchemaSource, chip string, opts ...Option) (*Session, error) {
	c, err := cat.Lookup(chip)
	if err != nil {
		return nil, err
	}
	schema, err := schemas.Load(c.Name)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Chip:      c,
		Schema:    schema,
		Form:      regform.NewForm(schema),
		generator: codegen.New(codegen.DefaultLayout("."), codegen.Options{}),
		registrar: toolchain.Rustup(),
	}
	for _, opt := range opts {
		opt(s)
	}
	glog.V(1).Infof("setup: opened %s (%s, %s): %d visible fields, %d hidden registers",
		c.Name, c.Vendor, c.Target, len(s.Form.Fields()), s.Form.Hidden().Len())
	return s, nil
}

// DefaultClock returns the clock from the register description.
func (s *Session) DefaultClock() string {
	return s.Schema.Clock
}

// Report describes a completed save.
type Report struct {
	Chip       catalog.Chip
	Composed   *compose.Result
	ClockMHz   int
	OutputRoot string
	// Warning is set when the artifacts were written but the target could
	// not be registered.
	Warning error
}

// ParseClock reads the clock text as integer MHz. It rejects zero, negative
// values and clocks whose kHz value overflows the generated u32 constant.
func ParseClock(text string) (int, error) {
	mhz, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || mhz <= 0 || mhz > codegen.MaxClockMHz {
		return 0, errors.Wrapf(ErrInvalidClockInput, "%q", text)
	}
	return mhz, nil
}

// Compose composes the current form selections.
func (s *Session) Compose() (*compose.Result, error) {
	var opts []compose.Option
	if s.strict {
		opts = append(opts, compose.Strict())
	}
	return s.Form.Compose(opts...)
}

// Render validates the clock and produces the artifacts in memory without
// writing or registering anything.
func (s *Session) Render(clockText string) ([]codegen.Artifact, error) {
	mhz, err := ParseClock(clockText)
	if err != nil {
		return nil, err
	}
	composed, err := s.Compose()
	if err != nil {
		return nil, err
	}
	return s.generator.Render(s.Chip, composed, mhz)
}

// Save validates the clock, composes the registers afresh, writes the
// artifacts under outputRoot and registers the chip's target. A failed
// registration is reported in Report.Warning, not as an error.
func (s *Session) Save(ctx context.Context, clockText, outputRoot string) (*Report, error) {
	mhz, err := ParseClock(clockText)
	if err != nil {
		return nil, err
	}
	composed, err := s.Compose()
	if err != nil {
		return nil, err
	}
	glog.Infof("setup: %s: %d registers composed, clock %d MHz", s.Chip.Name, composed.Len(), mhz)

	if err := s.generator.Generate(s.Chip, composed, mhz, outputRoot); err != nil {
		glog.Errorf("setup: %s: generation failed: %v", s.Chip.Name, err)
		return nil, err
	}
	glog.Infof("setup: %s: artifacts written to %s", s.Chip.Name, outputRoot)

	rep := &Report{Chip: s.Chip, Composed: composed, ClockMHz: mhz, OutputRoot: outputRoot}
	if err := s.registrar.Register(ctx, s.Chip.Target); err != nil {
		glog.Warningf("setup: %s: %v", s.Chip.Name, err)
		rep.Warning = err
	}
	return rep, nil
}
