// Package codegen writes the generated sources of a configured chip: the
// register constants header, the chip-specific memory map, startup, mcu
// and system files, the build configuration and an OpenOCD script.
package codegen

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/catalog"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/compose"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regschema"
)

// Output names inside the output directory, in generation order.
const (
	CoreHeaderFile = "core_header.rs"
	MemoryFile     = "memory.x"
	StartupFile    = "startup.s"
	MCUFile        = "mcu.rs"
	ResetFile      = "reset.rs"
	SystemFile     = "system.rs"
	BuildFile      = "config.toml"
	OpenOCDFile    = "openocd.cfg"
)

// DefaultTargetToken is replaced by the chip's target triple in the build
// configuration template.
const DefaultTargetToken = "@TARGET@"

// Layout says where the chip-specific sources live under Root.
type Layout struct {
	Root          string
	MemoryDir     string // <MemoryDir>/<chip>.x
	StartupDir    string // <StartupDir>/<chip>.s
	MCUDir        string // <MCUDir>/<chip>.rs
	SystemDir     string // <SystemDir>/<profile>.rs
	Reset         string // copied for every chip
	BuildTemplate string // relative to Root unless absolute
	TargetToken   string
}

// DefaultLayout returns the conventional layout rooted at root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:          root,
		MemoryDir:     "memory",
		StartupDir:    "startup",
		MCUDir:        "mcu",
		SystemDir:     "system",
		Reset:         ResetFile,
		BuildTemplate: "config.toml.in",
		TargetToken:   DefaultTargetToken,
	}
}

func (l Layout) path(parts ...string) string {
	p := filepath.Join(parts...)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, p)
}

// WriteMode selects how artifacts reach the output directory.
type WriteMode int

const (
	// Staged renders everything first and moves files into place only
	// when every input was readable.
	Staged WriteMode = iota
	// Direct writes each artifact as soon as it is produced; a failure
	// leaves the earlier artifacts on disk.
	Direct
)

func (m WriteMode) String() string {
	if m == Direct {
		return "direct"
	}
	return "staged"
}

// ParseWriteMode accepts "staged" or "direct".
func ParseWriteMode(s string) (WriteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "staged":
		return Staged, nil
	case "direct":
		return Direct, nil
	}
	return Staged, errors.Errorf("codegen: unknown write mode %q", s)
}

// Options configure the OpenOCD script.
type Options struct {
	Mode             WriteMode
	OpenOCDInterface string
	OpenOCDTransport string
}

// Artifact is one generated file.
type Artifact struct {
	Name   string
	Source string // copied file, empty for rendered ones
	Data   []byte
}

// Generator produces the output tree of one save.
type Generator struct {
	Layout  Layout
	Options Options
}

// New returns a Generator with default OpenOCD settings.
func New(layout Layout, opts Options) *Generator {
	if layout.TargetToken == "" {
		layout.TargetToken = DefaultTargetToken
	}
	if opts.OpenOCDInterface == "" {
		opts.OpenOCDInterface = "stlink.cfg"
	}
	if opts.OpenOCDTransport == "" {
		opts.OpenOCDTransport = "dapdirect_swd"
	}
	return &Generator{Layout: layout, Options: opts}
}

type step struct {
	name    string
	produce func() (Artifact, error)
}

func (g *Generator) steps(chip catalog.Chip, composed *compose.Result, clockMHz int) []step {
	l := g.Layout
	steps := []step{
		{CoreHeaderFile, func() (Artifact, error) { return RenderCoreHeader(composed, clockMHz) }},
		{MemoryFile, func() (Artifact, error) { return copyStep(MemoryFile, l.path(l.MemoryDir, chip.Name+".x")) }},
		{StartupFile, func() (Artifact, error) { return copyStep(StartupFile, l.path(l.StartupDir, chip.Name+".s")) }},
		{MCUFile, func() (Artifact, error) { return copyStep(MCUFile, l.path(l.MCUDir, chip.Name+".rs")) }},
		{ResetFile, func() (Artifact, error) { return copyStep(ResetFile, l.path(l.Reset)) }},
		{SystemFile, func() (Artifact, error) { return copyStep(SystemFile, l.path(l.SystemDir, chip.SystemProfile+".rs")) }},
		{BuildFile, func() (Artifact, error) { return g.renderBuild(chip) }},
	}
	if chip.OpenOCDTarget != "" {
		steps = append(steps, step{OpenOCDFile, func() (Artifact, error) { return g.renderOpenOCD(chip) }})
	}
	return steps
}

// Render produces every artifact in memory without touching the output
// directory.
func (g *Generator) Render(chip catalog.Chip, composed *compose.Result, clockMHz int) ([]Artifact, error) {
	var out []Artifact
	for _, s := range g.steps(chip, composed, clockMHz) {
		a, err := s.produce()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Generate writes the artifacts for chip into outputRoot, creating it if
// needed. Existing files of a previous generation are overwritten. In
// Staged mode a missing source leaves outputRoot untouched.
func (g *Generator) Generate(chip catalog.Chip, composed *compose.Result, clockMHz int, outputRoot string) error {
	glog.V(1).Infof("codegen: %s -> %s (%s)", chip.Name, outputRoot, g.Options.Mode)
	if g.Options.Mode == Direct {
		if err := mkdir(outputRoot); err != nil {
			return err
		}
		return g.generateDirect(chip, composed, clockMHz, outputRoot)
	}
	arts, err := g.Render(chip, composed, clockMHz)
	if err != nil {
		return err
	}
	if err := mkdir(outputRoot); err != nil {
		return err
	}
	return writeStaged(outputRoot, arts)
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "codegen: create %s", dir)
	}
	return nil
}

func (g *Generator) generateDirect(chip catalog.Chip, composed *compose.Result, clockMHz int, outputRoot string) error {
	for _, s := range g.steps(chip, composed, clockMHz) {
		a, err := s.produce()
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outputRoot, a.Name), a.Data); err != nil {
			return err
		}
		glog.V(2).Infof("codegen: wrote %s", a.Name)
	}
	return nil
}

// RenderCoreHeader renders the register address/value constants followed by
// FOSC_KHZ_VALUE.
func RenderCoreHeader(composed *compose.Result, clockMHz int) (Artifact, error) {
	if clockMHz <= 0 || clockMHz > MaxClockMHz {
		return Artifact{}, errors.Wrapf(ErrClockOutOfRange, "%d MHz", clockMHz)
	}
	data := headerData{FoscKHz: uint32(clockMHz) * 1000}
	if composed != nil {
		for _, e := range composed.Entries() {
			addr, err := regschema.ParseHex(e.Address())
			if err != nil {
				return Artifact{}, errors.Wrapf(err, "codegen: register %s", e.Register())
			}
			if addr > math.MaxUint32 {
				return Artifact{}, errors.Errorf("codegen: register %s: address %s does not fit in 32 bits", e.Register(), e.Address())
			}
			data.Entries = append(data.Entries, headerEntry{Register: e.Register(), Address: addr, Value: e.Value})
		}
	}
	var buf bytes.Buffer
	if err := templates.coreHeader.Execute(&buf, data); err != nil {
		return Artifact{}, errors.Wrap(err, "codegen: core header")
	}
	return Artifact{Name: CoreHeaderFile, Data: buf.Bytes()}, nil
}

func (g *Generator) renderBuild(chip catalog.Chip) (Artifact, error) {
	src := g.Layout.path(g.Layout.BuildTemplate)
	data, err := os.ReadFile(src)
	if err != nil {
		return Artifact{}, &AuxFileError{Step: BuildFile, Source: src, Err: err}
	}
	out := bytes.ReplaceAll(data, []byte(g.Layout.TargetToken), []byte(chip.Target))
	return Artifact{Name: BuildFile, Source: src, Data: out}, nil
}

func (g *Generator) renderOpenOCD(chip catalog.Chip) (Artifact, error) {
	var buf bytes.Buffer
	err := templates.openocd.Execute(&buf, openocdData{
		Interface: g.Options.OpenOCDInterface,
		Transport: g.Options.OpenOCDTransport,
		Target:    chip.OpenOCDTarget,
	})
	if err != nil {
		return Artifact{}, errors.Wrap(err, "codegen: openocd script")
	}
	return Artifact{Name: OpenOCDFile, Data: buf.Bytes()}, nil
}

func copyStep(name, src string) (Artifact, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Artifact{}, &AuxFileError{Step: name, Source: src, Err: err}
	}
	return Artifact{Name: name, Source: src, Data: data}, nil
}
